// Package movetype parses Move struct type descriptors such as
// "0xabc::pool::Pool<0x2::sui::SUI, 0xdef::usdc::USDC, 0xabc::fee::FEE3000>".
package movetype

import (
	"fmt"
	"strings"

	"portfolio_aggregator/internal/domain/entity"
)

var (
	// ErrWrongArity is returned when a type carries an unexpected number of type arguments.
	ErrWrongArity = fmt.Errorf("wrong number of type arguments: %w", entity.ErrInvariant)
	// ErrMalformedType is returned for descriptors that do not parse.
	ErrMalformedType = fmt.Errorf("malformed type descriptor: %w", entity.ErrInvariant)
)

const (
	suiLongCoinType  = "0x0000000000000000000000000000000000000000000000000000000000000002::sui::SUI"
	suiShortCoinType = "0x2::sui::SUI"
)

// ParseTypeArgs returns the top-level type arguments of typ, in order.
// Nested generics are kept intact. A type without arguments yields nil.
// Unbalanced angle brackets and empty arguments are reported as
// ErrMalformedType.
func ParseTypeArgs(typ string) ([]string, error) {
	typ = strings.TrimSpace(typ)
	open := strings.IndexByte(typ, '<')
	if open < 0 {
		if strings.IndexByte(typ, '>') >= 0 {
			return nil, malformed(typ, "unexpected '>'")
		}
		return nil, nil
	}
	if !strings.HasSuffix(typ, ">") {
		return nil, malformed(typ, "missing closing '>'")
	}
	body := typ[open+1 : len(typ)-1]

	var (
		args  []string
		depth int
		start int
	)
	for i := 0; i < len(body); i++ {
		switch body[i] {
		case '<':
			depth++
		case '>':
			depth--
			if depth < 0 {
				return nil, malformed(typ, "unbalanced '>'")
			}
		case ',':
			if depth == 0 {
				args = append(args, strings.TrimSpace(body[start:i]))
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, malformed(typ, "unbalanced '<'")
	}
	args = append(args, strings.TrimSpace(body[start:]))
	for i, arg := range args {
		if arg == "" {
			return nil, malformed(typ, fmt.Sprintf("empty type argument %d", i))
		}
	}
	return args, nil
}

func malformed(typ, reason string) error {
	return fmt.Errorf("%q: %s: %w", typ, reason, ErrMalformedType)
}

// ExpectArity checks that args has exactly n elements.
func ExpectArity(typ string, args []string, n int) error {
	if len(args) != n {
		return fmt.Errorf("%s: got %d, want %d: %w", typ, len(args), n, ErrWrongArity)
	}
	return nil
}

// Parse returns the n type arguments of typ, failing on malformed
// descriptors and on any other arity.
func Parse(typ string, n int) ([]string, error) {
	args, err := ParseTypeArgs(typ)
	if err != nil {
		return nil, err
	}
	if err := ExpectArity(typ, args, n); err != nil {
		return nil, err
	}
	return args, nil
}

// StructName returns the struct part of typ without its type arguments,
// e.g. "0xabc::pool::Pool".
func StructName(typ string) string {
	if i := strings.IndexByte(typ, '<'); i >= 0 {
		return typ[:i]
	}
	return typ
}

// FormatForNative shortens the zero-padded SUI coin type to its native form.
func FormatForNative(coin string) string {
	if coin == suiLongCoinType {
		return suiShortCoinType
	}
	return coin
}
