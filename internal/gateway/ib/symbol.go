package ib

import (
	"fmt"
	"strconv"
	"strings"

	"tradegate/internal/domain"
)

// parseContract resolves a symbol into the venue contract descriptor.
// Two encodings are accepted: the composite form with a fixed field
// order
//
//	SPY-USD-STK
//	EUR-USD-CASH
//	ES-202002-USD-FUT
//	SI-202006-1000-USD-FUT
//	ES-202006-C-2430-50-USD-FOP
//
// and, when no separator is present, the venue-native numeric contract
// id. Anything else fails with ErrSymbolFormat.
func parseContract(symbol, nativeExchange string) (ContractSpec, error) {
	if !strings.Contains(symbol, joinSymbol) {
		conID, err := strconv.ParseInt(symbol, 10, 64)
		if err != nil {
			return ContractSpec{}, fmt.Errorf("%w: %q", domain.ErrSymbolFormat, symbol)
		}
		return ContractSpec{ConID: conID, Exchange: nativeExchange}, nil
	}

	fields := strings.Split(symbol, joinSymbol)
	if len(fields) < 3 {
		return ContractSpec{}, fmt.Errorf("%w: %q", domain.ErrSymbolFormat, symbol)
	}

	spec := ContractSpec{
		Symbol:   fields[0],
		Exchange: nativeExchange,
		SecType:  fields[len(fields)-1],
		Currency: fields[len(fields)-2],
	}

	switch spec.SecType {
	case "FUT":
		if len(fields) < 4 {
			return ContractSpec{}, fmt.Errorf("%w: %q", domain.ErrSymbolFormat, symbol)
		}
		spec.Expiry = fields[1]
		if len(fields) == 5 {
			if _, err := strconv.Atoi(fields[2]); err != nil {
				return ContractSpec{}, fmt.Errorf("%w: %q", domain.ErrSymbolFormat, symbol)
			}
			spec.Multiplier = fields[2]
		}
	case "OPT", "FOP":
		if len(fields) != 7 {
			return ContractSpec{}, fmt.Errorf("%w: %q", domain.ErrSymbolFormat, symbol)
		}
		spec.Expiry = fields[1]
		spec.Right = fields[2]
		strike, err := strconv.ParseFloat(fields[3], 64)
		if err != nil {
			return ContractSpec{}, fmt.Errorf("%w: %q", domain.ErrSymbolFormat, symbol)
		}
		if _, err := strconv.Atoi(fields[4]); err != nil {
			return ContractSpec{}, fmt.Errorf("%w: %q", domain.ErrSymbolFormat, symbol)
		}
		spec.Strike = strike
		spec.Multiplier = fields[4]
	}

	return spec, nil
}

// generateSymbol renders the composite form of a venue contract
// descriptor. The caller falls back to the numeric contract id when
// the composite form is not among the known contracts.
func generateSymbol(spec ContractSpec) string {
	fields := []string{spec.Symbol}

	switch spec.SecType {
	case "FUT", "OPT", "FOP":
		fields = append(fields, spec.Expiry)
	}
	switch spec.SecType {
	case "OPT", "FOP":
		fields = append(fields,
			spec.Right,
			strconv.FormatFloat(spec.Strike, 'f', -1, 64),
			spec.Multiplier,
		)
	}

	fields = append(fields, spec.Currency, spec.SecType)
	return strings.Join(fields, joinSymbol)
}
