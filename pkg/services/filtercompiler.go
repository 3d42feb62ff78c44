package services

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/datahub-inc/datahub-engine/pkg/apperrors"
	"github.com/datahub-inc/datahub-engine/pkg/database"
	"github.com/datahub-inc/datahub-engine/pkg/models"
	"github.com/datahub-inc/datahub-engine/pkg/repositories"
	enginesql "github.com/datahub-inc/datahub-engine/pkg/sql"
)

// FilterCompiler turns the raw filter map of a query request into a validated
// predicate set. Only keys the effective schema declares are accepted, so the
// set of legal filters is driven entirely by per-tenant metadata, never by
// code. Compilation is stateless; a compiler can be shared across requests.
type FilterCompiler struct {
	catalog  repositories.CatalogRepository
	entities repositories.EntityRepository
	logger   *zap.Logger
}

// NewFilterCompiler creates a new FilterCompiler.
func NewFilterCompiler(catalog repositories.CatalogRepository, entities repositories.EntityRepository, logger *zap.Logger) *FilterCompiler {
	return &FilterCompiler{catalog: catalog, entities: entities, logger: logger}
}

// Compile validates raw against the schema's declared filters and compiles
// each binding into a typed predicate. Keys absent from the schema fail with
// a validation error naming the declared alternatives. Empty values and the
// reserved value "all" deactivate their filter. Predicates come out in schema
// order, so equal inputs always compile to equal sets.
func (c *FilterCompiler) Compile(ctx context.Context, p *database.Partition, schema *models.EffectiveSchema, raw map[string]string) (models.PredicateSet, error) {
	var set models.PredicateSet

	for key := range raw {
		if _, ok := schema.Filter(key); !ok {
			return set, apperrors.NewValidation(key,
				fmt.Sprintf("unknown filter, declared filters: %s", strings.Join(schema.FilterNames(), ", ")))
		}
	}

	for _, spec := range schema.Filters {
		value, ok := raw[spec.Name]
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		if value == "" || strings.EqualFold(value, "all") {
			continue
		}

		if chk := enginesql.ScreenValue(spec.Name, value); chk != nil {
			c.logger.Warn("rejected filter value",
				zap.String("filter", chk.Field),
				zap.String("fingerprint", chk.Fingerprint),
				zap.String("tenant", p.Tenant.TenantID))
			return models.PredicateSet{}, apperrors.NewValidation(spec.Name, "value rejected")
		}

		pred, err := c.compileOne(ctx, p, spec.Name, value)
		if err != nil {
			return models.PredicateSet{}, err
		}
		set.Predicates = append(set.Predicates, pred)
	}

	return set, nil
}

// compileOne maps one filter binding to its predicate. The well-known keys
// get dedicated semantics; everything else passes through as an equality
// match on the column of the same name.
func (c *FilterCompiler) compileOne(ctx context.Context, p *database.Partition, key, raw string) (models.Predicate, error) {
	pred := models.Predicate{Key: key, Raw: raw}

	switch key {
	case "severity_level":
		level, err := strconv.Atoi(raw)
		if err != nil {
			return pred, apperrors.NewValidation(key, fmt.Sprintf("severity level %q is not a number", raw))
		}
		pred.Kind = models.PredicateMinSeverity
		pred.MinLevel = level

	case "location":
		entity, err := c.entities.GetByUID(ctx, p, p.Tenant.ID, raw)
		if err != nil {
			return pred, err
		}
		if entity == nil {
			return pred, apperrors.NewValidation(key, fmt.Sprintf("entity %q does not belong to tenant %s", raw, p.Tenant.TenantID))
		}
		pred.Kind = models.PredicateEntity
		pred.EntityID = entity.ID

	case "flag_type":
		ft, err := c.catalog.GetFlagType(ctx, p, raw)
		if err != nil {
			return pred, err
		}
		if ft == nil {
			known, err := c.catalog.ListFlagTypes(ctx, p)
			if err != nil {
				return pred, err
			}
			options := make([]string, 0, len(known))
			for _, k := range known {
				options = append(options, k.Name)
			}
			return pred, apperrors.NewNotFound("flag type", raw, options...)
		}
		pred.Kind = models.PredicateFlagType
		pred.FlagTypeID = ft.ID

	case "value":
		rng, err := ParseValueRange(raw)
		if err != nil {
			return pred, err
		}
		pred.Kind = models.PredicateValueRange
		pred.Range = rng

	default:
		pred.Kind = models.PredicateEquality
		pred.Text = raw
	}

	return pred, nil
}

// Value range inputs are integers in display units (centimeters); stored
// measurements are meters, hence the /100 scaling. Prefix matching keeps
// trailing unit text ("51 - 100 cm") legal.
var (
	rangeBetween = regexp.MustCompile(`^(\d+)\s*[-_]\s*(\d+)`)
	rangeAbove   = regexp.MustCompile(`^>\s*(\d+)`)
	rangeBelow   = regexp.MustCompile(`^<\s*(\d+)`)
)

// ParseValueRange compiles a raw measurement filter into a numeric range.
// Accepted shapes: "N - M" and "N_M" (inclusive both ends), "> N" and "< N"
// (strict), and a bare integer N (at least N). Anything else fails with a
// validation error.
func ParseValueRange(raw string) (models.NumericRange, error) {
	v := strings.TrimSpace(raw)

	if m := rangeBetween.FindStringSubmatch(v); m != nil {
		lower, upper := scaleCentis(m[1]), scaleCentis(m[2])
		return models.NumericRange{Lower: &lower, Upper: &upper}, nil
	}
	if m := rangeAbove.FindStringSubmatch(v); m != nil {
		lower := scaleCentis(m[1])
		return models.NumericRange{Lower: &lower, LowerStrict: true}, nil
	}
	if m := rangeBelow.FindStringSubmatch(v); m != nil {
		upper := scaleCentis(m[1])
		return models.NumericRange{Upper: &upper, UpperStrict: true}, nil
	}
	if n, err := strconv.Atoi(v); err == nil {
		lower := float64(n) / 100
		return models.NumericRange{Lower: &lower}, nil
	}

	return models.NumericRange{}, apperrors.NewValidation("value", fmt.Sprintf("unparseable range %q", raw))
}

// scaleCentis converts a digits-only match to the stored unit.
func scaleCentis(digits string) float64 {
	n, _ := strconv.Atoi(digits)
	return float64(n) / 100
}
