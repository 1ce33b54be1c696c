package validate_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gkobilansky/janus-goat/internal/analysis"
	"github.com/gkobilansky/janus-goat/internal/validate"
	"github.com/gkobilansky/janus-goat/internal/variants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registryWith(t *testing.T, tmpls ...variants.Template) *variants.Registry {
	t.Helper()
	r := variants.NewRegistry()
	for _, tmpl := range tmpls {
		r.AddTemplate(tmpl)
	}
	return r
}

func asValidationError(t *testing.T, err error) *validate.Error {
	t.Helper()
	require.Error(t, err)
	var verr *validate.Error
	require.True(t, errors.As(err, &verr), "expected *validate.Error, got %T", err)
	return verr
}

func TestValidate_ValidInput(t *testing.T) {
	for n := 2; n <= 12; n++ {
		t.Run(fmt.Sprintf("%d variants", n), func(t *testing.T) {
			r := variants.NewRegistry()
			for i := 0; i < n; i++ {
				r.AddTemplate(variants.Template{
					Name:        fmt.Sprintf("V%d", i),
					Impressions: 100 * (i + 1),
					Conversions: 10 * i,
					Revenue:     float64(i),
				})
			}
			baseline := fmt.Sprintf("V%d", n/2)
			assert.NoError(t, validate.Validate(baseline, r.List()))
		})
	}
}

func TestValidate_EqualConversionsAndImpressionsIsValid(t *testing.T) {
	r := registryWith(t,
		variants.Template{Name: "A", Impressions: 10, Conversions: 10},
		variants.Template{Name: "B", Impressions: 0, Conversions: 0},
	)
	assert.NoError(t, validate.Validate("A", r.List()))
}

func TestValidate_BaselineRequired(t *testing.T) {
	r := registryWith(t, variants.DefaultTemplates()...)

	verr := asValidationError(t, validate.Validate("   ", r.List()))
	assert.Equal(t, validate.RuleBaselineRequired, verr.First().Rule)
	assert.Equal(t, "Please specify a baseline variant.", verr.Message())
	assert.False(t, verr.Has(validate.RuleBaselineNotFound))
}

func TestValidate_MinVariants(t *testing.T) {
	r := registryWith(t, variants.Template{Name: "A", Impressions: 10, Conversions: 1})

	verr := asValidationError(t, validate.Validate("A", r.List()))
	assert.Equal(t, validate.RuleMinVariants, verr.First().Rule)
}

func TestValidate_RemovingBaselineReportsNotFound(t *testing.T) {
	r := variants.NewRegistry()
	idA := r.AddTemplate(variants.Template{Name: "A", Impressions: 1000, Conversions: 100, Revenue: 100})
	r.AddTemplate(variants.Template{Name: "B", Impressions: 1000, Conversions: 120, Revenue: 110})
	r.AddTemplate(variants.Template{Name: "C", Impressions: 1000, Conversions: 90, Revenue: 95})
	require.NoError(t, validate.Validate("A", r.List()))

	require.NoError(t, r.Remove(idA))

	verr := asValidationError(t, validate.Validate("A", r.List()))
	assert.Equal(t, validate.RuleBaselineNotFound, verr.First().Rule)
	assert.Equal(t, []string{"A"}, verr.First().Variants)
	assert.Contains(t, verr.Message(), `"A"`)
}

func TestValidate_RemovingBaselineFromPairStillFlagsNotFound(t *testing.T) {
	r := variants.NewRegistry()
	idA := r.AddTemplate(variants.Template{Name: "A", Impressions: 10})
	r.AddTemplate(variants.Template{Name: "B", Impressions: 10})
	require.NoError(t, r.Remove(idA))

	verr := asValidationError(t, validate.Validate("A", r.List()))
	assert.Equal(t, validate.RuleMinVariants, verr.First().Rule)
	assert.True(t, verr.Has(validate.RuleBaselineNotFound))
}

func TestValidate_BaselineMatchesTrimmedName(t *testing.T) {
	r := registryWith(t,
		variants.Template{Name: "  Control ", Impressions: 10, Conversions: 1},
		variants.Template{Name: "Treatment", Impressions: 10, Conversions: 2},
	)
	assert.NoError(t, validate.Validate(" Control", r.List()))

	verr := asValidationError(t, validate.Validate("control", r.List()))
	assert.Equal(t, validate.RuleBaselineNotFound, verr.First().Rule)
}

func TestValidate_DuplicateNames(t *testing.T) {
	tests := []struct {
		name  string
		tmpls []variants.Template
	}{
		{
			name: "identical",
			tmpls: []variants.Template{
				{Name: "A", Impressions: 10, Conversions: 1},
				{Name: "A", Impressions: 10, Conversions: 2},
			},
		},
		{
			name: "identical after trimming",
			tmpls: []variants.Template{
				{Name: "A", Impressions: 10, Conversions: 1},
				{Name: " A  ", Impressions: 10, Conversions: 2},
			},
		},
		{
			name: "duplicate with other invalid fields",
			tmpls: []variants.Template{
				{Name: "A", Impressions: 10, Conversions: 50},
				{Name: "A ", Impressions: 1, Conversions: 2},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := registryWith(t, tt.tmpls...)
			verr := asValidationError(t, validate.Validate("A", r.List()))
			assert.Equal(t, validate.RuleDuplicateName, verr.First().Rule)
			assert.Equal(t, []string{"A"}, verr.First().Variants)
		})
	}
}

func TestValidate_NamesAreCaseSensitive(t *testing.T) {
	r := registryWith(t,
		variants.Template{Name: "a", Impressions: 10, Conversions: 1},
		variants.Template{Name: "A", Impressions: 10, Conversions: 1},
	)
	assert.NoError(t, validate.Validate("A", r.List()))
}

func TestValidate_ConversionsExceedImpressionsFlagsFields(t *testing.T) {
	r := variants.NewRegistry()
	idA := r.AddTemplate(variants.Template{Name: "A", Impressions: 100, Conversions: 101})
	idB := r.AddTemplate(variants.Template{Name: "B", Impressions: 100, Conversions: 10})
	idC := r.AddTemplate(variants.Template{Name: "C", Impressions: 5, Conversions: 6})

	verr := asValidationError(t, validate.Validate("B", r.List()))
	assert.Equal(t, validate.RuleConversionsExceedImpressions, verr.First().Rule)
	assert.Equal(t, []string{"A", "C"}, verr.First().Variants)

	assert.True(t, verr.Flagged(idA, validate.FieldConversions))
	assert.False(t, verr.Flagged(idB, validate.FieldConversions))
	assert.True(t, verr.Flagged(idC, validate.FieldConversions))
}

func TestValidate_FlagsEvaluatedAfterEarlierFailure(t *testing.T) {
	r := variants.NewRegistry()
	id := r.AddTemplate(variants.Template{Name: "A", Impressions: 1, Conversions: 2})

	verr := asValidationError(t, validate.Validate("", r.List()))
	assert.Equal(t, validate.RuleBaselineRequired, verr.First().Rule)
	assert.True(t, verr.Has(validate.RuleMinVariants))
	assert.True(t, verr.Has(validate.RuleConversionsExceedImpressions))
	assert.True(t, verr.Flagged(id, validate.FieldConversions))
}

func TestValidate_NegativeAndUnnamed(t *testing.T) {
	r := variants.NewRegistry()
	r.AddTemplate(variants.Template{Name: "A", Impressions: 10, Conversions: 1})
	idNeg := r.AddTemplate(variants.Template{Name: "B", Impressions: 10, Conversions: 1, Revenue: -5})
	idBlank := r.AddTemplate(variants.Template{Name: "  ", Impressions: 10, Conversions: 1})

	verr := asValidationError(t, validate.Validate("A", r.List()))
	assert.Equal(t, validate.RuleNameRequired, verr.First().Rule)
	assert.Equal(t, []string{"#3"}, verr.First().Variants)
	assert.True(t, verr.Has(validate.RuleInvalidCounts))
	assert.True(t, verr.Flagged(idNeg, validate.FieldRevenue))
	assert.True(t, verr.Flagged(idBlank, validate.FieldName))
}

func TestValidate_BlankNamesAreNotDuplicates(t *testing.T) {
	r := variants.NewRegistry()
	r.AddTemplate(variants.Template{Name: "A", Impressions: 10, Conversions: 1})
	r.AddTemplate(variants.Template{Name: "", Impressions: 10, Conversions: 1})
	r.AddTemplate(variants.Template{Name: " ", Impressions: 10, Conversions: 1})

	verr := asValidationError(t, validate.Validate("A", r.List()))
	assert.Equal(t, validate.RuleNameRequired, verr.First().Rule)
	assert.Equal(t, []string{"#2", "#3"}, verr.First().Variants)
	assert.False(t, verr.Has(validate.RuleDuplicateName))
}

func TestValidateRequest(t *testing.T) {
	ok := analysis.Request{
		Variants: []analysis.Variant{
			{Name: "A", Impressions: 1000, Conversions: 100, Revenue: 100},
			{Name: "B", Impressions: 1000, Conversions: 120, Revenue: 110},
		},
		BaselineVariant: "A",
	}
	assert.NoError(t, validate.ValidateRequest(ok))

	bad := ok
	bad.BaselineVariant = "Z"
	verr := asValidationError(t, validate.ValidateRequest(bad))
	assert.Equal(t, validate.RuleBaselineNotFound, verr.First().Rule)
}

func TestToRequest_TrimsNames(t *testing.T) {
	r := registryWith(t,
		variants.Template{Name: " A ", Impressions: 1000, Conversions: 100, Revenue: 100},
		variants.Template{Name: "B\t", Impressions: 1000, Conversions: 120, Revenue: 110},
	)

	req := validate.ToRequest(" A", r.List())
	assert.Equal(t, "A", req.BaselineVariant)
	assert.Equal(t, []analysis.Variant{
		{Name: "A", Impressions: 1000, Conversions: 100, Revenue: 100},
		{Name: "B", Impressions: 1000, Conversions: 120, Revenue: 110},
	}, req.Variants)
}
