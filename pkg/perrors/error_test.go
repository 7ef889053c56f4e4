package perrors_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pql-lang/pqlc/pkg/perrors"
	"github.com/pql-lang/pqlc/pkg/token"
)

func TestError_Rendering(t *testing.T) {
	cases := []struct {
		name   string
		reason perrors.ReasonKind
		want   string
	}{
		{"simple", perrors.Simple{Message: "something broke"}, "something broke"},
		{"expected with who", perrors.Expected{Who: "function `select`", Expected: "tuple", Found: "int"}, "function `select`: expected tuple, found int"},
		{"expected without who", perrors.Expected{Expected: "tuple", Found: "int"}, "expected tuple, found int"},
		{"unexpected", perrors.Unexpected{Found: "alias"}, "unexpected alias"},
		{"not found", perrors.NotFound{Name: "orders", Namespace: "table"}, "unknown table `orders`"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, perrors.New(tc.reason).Error())
		})
	}
}

func TestError_WithSpanPrefixesLineColumn(t *testing.T) {
	span := token.Span{Start: token.Position{Line: 3, Column: 5, Offset: 10}, End: token.Position{Line: 3, Column: 9, Offset: 14}}
	err := perrors.New(perrors.Simple{Message: "bad"}).WithSpan(span)
	require.Equal(t, "3:5: bad", err.Error())
}

func TestError_WithHint(t *testing.T) {
	err := perrors.New(perrors.Simple{Message: "bad"}).WithHint("try this").WithHint("or this")
	require.Equal(t, []string{"try this", "or this"}, err.Hints)
}

func TestNotFoundWithCandidates_SingleCandidateStaysNotFound(t *testing.T) {
	err := perrors.NotFoundWithCandidates("orders", "table", nil)
	require.Equal(t, "unknown table `orders`", err.Error())
	require.Empty(t, err.Hints)
}

func TestNotFoundWithCandidates_MultipleBecomesAmbiguous(t *testing.T) {
	err := perrors.NotFoundWithCandidates("orders", "table", []string{"a.orders", "b.orders"})
	require.Equal(t, "ambiguous name `orders`", err.Error())
	require.Len(t, err.Hints, 1)
	require.Contains(t, err.Hints[0], "a.orders, b.orders")
}

func TestErrors_JoinsOnePerLine(t *testing.T) {
	errs := perrors.Errors{
		perrors.New(perrors.Simple{Message: "first"}),
		perrors.New(perrors.Simple{Message: "second"}),
	}
	require.Equal(t, "first\nsecond", errs.Error())
}
