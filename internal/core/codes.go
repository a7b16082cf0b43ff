package core

import (
	"math"
	"strconv"
	"strings"
)

// Display labels for the decoded categorical fields.
const (
	SeniorityJunior    = "Junior"
	SeniorityPleno     = "Pleno"
	SenioritySenior    = "Senior"
	SeniorityExecutivo = "Executivo"

	ContractFullTime  = "Tempo Integral"
	ContractContract  = "Contrato"
	ContractPartTime  = "Tempo Parcial"
	ContractFreelance = "Freelancer"

	RemoteOnSite = "Presencial"
	RemoteHybrid = "Hibrido"
	RemoteFull   = "Remoto"

	CompanySmall  = "Pequena"
	CompanyMedium = "Media"
	CompanyLarge  = "Grande"
)

var (
	seniorityLabels = map[string]string{
		"SE": SenioritySenior,
		"MI": SeniorityPleno,
		"EN": SeniorityJunior,
		"EX": SeniorityExecutivo,
	}
	contractLabels = map[string]string{
		"FT": ContractFullTime,
		"CT": ContractContract,
		"PT": ContractPartTime,
		"FL": ContractFreelance,
	}
	remoteLabels = map[string]string{
		"0":   RemoteOnSite,
		"50":  RemoteHybrid,
		"100": RemoteFull,
	}
	companySizeLabels = map[string]string{
		"S": CompanySmall,
		"M": CompanyMedium,
		"L": CompanyLarge,
	}
)

// DecodeSeniority maps an experience level code (EN, MI, SE, EX) to its label.
// Unknown codes pass through unchanged.
func DecodeSeniority(code string) string { return decode(seniorityLabels, code) }

// DecodeContractType maps an employment type code (FT, CT, PT, FL) to its label.
func DecodeContractType(code string) string { return decode(contractLabels, code) }

// DecodeCompanySize maps a company size code (S, M, L) to its label.
func DecodeCompanySize(code string) string { return decode(companySizeLabels, code) }

// DecodeRemoteRatio maps 0, 50 and 100 to their labels. Numeric spellings
// such as "50.0" are accepted since CSV readers often widen the column.
func DecodeRemoteRatio(code string) string {
	key := strings.TrimSpace(code)
	if f, err := strconv.ParseFloat(key, 64); err == nil && f == math.Trunc(f) && !math.IsInf(f, 0) {
		key = strconv.FormatInt(int64(f), 10)
	}
	if label, ok := remoteLabels[key]; ok {
		return label
	}
	return code
}

func decode(labels map[string]string, code string) string {
	if label, ok := labels[strings.TrimSpace(code)]; ok {
		return label
	}
	return code
}
