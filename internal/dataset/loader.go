package dataset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/noot-app/fct-api/internal/types"
	"golang.org/x/sync/errgroup"
)

// File layout produced by the extraction pipeline
const (
	TaxonomyFile = "taxonomy.json"
	FoodsDir     = "foods"
	IndexFile    = "index.json"
)

// Store holds the foods and taxonomy loaded from a data directory.
// A Store is never modified after Load returns.
type Store struct {
	Dir         string
	Foods       []types.Food
	Taxonomy    *types.Taxonomy
	Fingerprint string
	LoadedAt    time.Time
}

// indexDocument is foods/index.json
type indexDocument struct {
	GeneratedAt string          `json:"generated_at"`
	Items       []indexDocEntry `json:"items"`
}

type indexDocEntry struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	FoodGroupCode string `json:"food_group_code"`
	FoodGroup     string `json:"food_group"`
}

// foodDocument is foods/<id>.json. Both the flat "measurements" layout and
// the extractor's split "nutrients"/"measurements" layout are accepted.
type foodDocument struct {
	ID               string                `json:"id"`
	Name             string                `json:"name"`
	FoodGroupCode    string                `json:"food_group_code"`
	FoodGroup        string                `json:"food_group"`
	ScientificName   *string               `json:"scientific_name"`
	AlternativeName  *string               `json:"alternative_name"`
	EdiblePortionPct *float64              `json:"edible_portion_pct"`
	ReportID         *string               `json:"report_id"`
	ReportURL        *string               `json:"report_url"`
	ImageID          *string               `json:"image_id"`
	ImageURL         *string               `json:"image_url"`
	Categories       []string              `json:"categories"`
	Nutrients        []measurementDocument `json:"nutrients"`
	Measurements     []measurementDocument `json:"measurements"`
}

type measurementDocument struct {
	Code     string   `json:"code"`
	Key      string   `json:"key"`
	Name     string   `json:"name"`
	Value    *float64 `json:"value"`
	Unit     *string  `json:"unit"`
	Category string   `json:"category"`
}

// taxonomyDocument is taxonomy.json. The extractor writes key/label where the
// API uses code/name, so both spellings are read.
type taxonomyDocument struct {
	Categories []struct {
		Code        string   `json:"code"`
		Key         string   `json:"key"`
		Name        string   `json:"name"`
		Label       string   `json:"label"`
		Sections    []string `json:"sections"`
		AmountBasis *string  `json:"amount_basis"`
		Count       *int     `json:"count"`
	} `json:"categories"`
	Nutrients []struct {
		Code     string  `json:"code"`
		Key      string  `json:"key"`
		Name     string  `json:"name"`
		Unit     *string `json:"unit"`
		Category string  `json:"category"`
	} `json:"nutrients"`
}

// Loader reads and validates a data directory
type Loader struct {
	dir      string
	log      *slog.Logger
	validate *validator.Validate
	workers  int
}

// NewLoader creates a loader for the given data directory
func NewLoader(dir string, logger *slog.Logger) *Loader {
	return &Loader{
		dir:      dir,
		log:      logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		workers:  runtime.GOMAXPROCS(0) * 2,
	}
}

// Load reads the data directory in dir. See Loader.Load.
func Load(ctx context.Context, dir string, logger *slog.Logger) (*Store, error) {
	return NewLoader(dir, logger).Load(ctx)
}

// Load reads taxonomy.json, foods/index.json and every detail file listed in
// the index. Any missing, malformed or inconsistent file fails the whole load
// with a *LoadError.
func (l *Loader) Load(ctx context.Context) (*Store, error) {
	start := time.Now()
	l.log.Info("Loading dataset", "data_dir", l.dir)

	fingerprint, err := Fingerprint(l.dir)
	if err != nil {
		return nil, err
	}

	taxonomy, err := l.loadTaxonomy()
	if err != nil {
		return nil, err
	}

	entries, err := l.loadIndex()
	if err != nil {
		return nil, err
	}

	foods := make([]types.Food, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)
	for i, entry := range entries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			food, err := l.loadFood(entry, taxonomy)
			if err != nil {
				return err
			}
			foods[i] = *food
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			return nil, err
		}
		return nil, &LoadError{Path: l.dir, Err: err}
	}

	store := &Store{
		Dir:         l.dir,
		Foods:       foods,
		Taxonomy:    taxonomy,
		Fingerprint: fingerprint,
		LoadedAt:    time.Now().UTC(),
	}

	l.log.Info("Dataset loaded",
		"foods", len(foods),
		"nutrients", len(taxonomy.Nutrients),
		"categories", len(taxonomy.Categories),
		"fingerprint", shortHash(fingerprint),
		"duration", time.Since(start))
	return store, nil
}

func (l *Loader) loadTaxonomy() (*types.Taxonomy, error) {
	path := filepath.Join(l.dir, TaxonomyFile)

	var doc taxonomyDocument
	if err := readJSON(path, &doc); err != nil {
		return nil, err
	}

	taxonomy := &types.Taxonomy{
		Categories: make([]types.CategoryMeta, 0, len(doc.Categories)),
		Nutrients:  make([]types.NutrientMeta, 0, len(doc.Nutrients)),
	}

	seenCategories := make(map[string]struct{}, len(doc.Categories))
	for _, c := range doc.Categories {
		meta := types.CategoryMeta{
			Code:        firstNonEmpty(c.Code, c.Key),
			Name:        firstNonEmpty(c.Name, c.Label),
			Sections:    c.Sections,
			AmountBasis: c.AmountBasis,
			Count:       c.Count,
		}
		if meta.Sections == nil {
			meta.Sections = []string{}
		}
		if _, dup := seenCategories[meta.Code]; dup {
			return nil, loadErrorf(path, ErrDuplicateTaxonomy, "category %q", meta.Code)
		}
		seenCategories[meta.Code] = struct{}{}
		taxonomy.Categories = append(taxonomy.Categories, meta)
	}

	seenNutrients := make(map[string]struct{}, len(doc.Nutrients))
	for _, n := range doc.Nutrients {
		meta := types.NutrientMeta{
			Code:     firstNonEmpty(n.Code, n.Key),
			Name:     n.Name,
			Unit:     n.Unit,
			Category: n.Category,
		}
		if _, dup := seenNutrients[meta.Code]; dup {
			return nil, loadErrorf(path, ErrDuplicateTaxonomy, "nutrient %q", meta.Code)
		}
		seenNutrients[meta.Code] = struct{}{}
		if _, ok := seenCategories[meta.Category]; !ok && meta.Category != "" {
			return nil, loadErrorf(path, ErrUndefinedCategory, "nutrient %q references category %q", meta.Code, meta.Category)
		}
		taxonomy.Nutrients = append(taxonomy.Nutrients, meta)
	}

	if err := l.validate.Struct(taxonomy); err != nil {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("%w: %v", ErrInvalidRecord, err)}
	}

	return taxonomy, nil
}

func (l *Loader) loadIndex() ([]indexDocEntry, error) {
	path := filepath.Join(l.dir, FoodsDir, IndexFile)

	var doc indexDocument
	if err := readJSON(path, &doc); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(doc.Items))
	for _, item := range doc.Items {
		if item.ID == "" {
			return nil, loadErrorf(path, ErrInvalidRecord, "index entry without id")
		}
		if !isSafeID(item.ID) {
			return nil, loadErrorf(path, ErrUnsafeFoodID, "%q", item.ID)
		}
		if _, dup := seen[item.ID]; dup {
			return nil, loadErrorf(path, ErrDuplicateID, "%q", item.ID)
		}
		seen[item.ID] = struct{}{}
	}

	l.log.Debug("Index loaded", "path", path, "items", len(doc.Items), "generated_at", doc.GeneratedAt)
	return doc.Items, nil
}

func (l *Loader) loadFood(entry indexDocEntry, taxonomy *types.Taxonomy) (*types.Food, error) {
	path := filepath.Join(l.dir, FoodsDir, entry.ID+".json")

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, loadErrorf(path, ErrMissingIndexedFood, "%q", entry.ID)
	}

	var doc foodDocument
	if err := readJSON(path, &doc); err != nil {
		return nil, err
	}

	if doc.ID != "" && doc.ID != entry.ID {
		return nil, loadErrorf(path, ErrIDMismatch, "index %q, detail %q", entry.ID, doc.ID)
	}

	food := &types.Food{
		ID:               entry.ID,
		Name:             firstNonEmpty(doc.Name, entry.Name),
		FoodGroupCode:    strings.ToUpper(firstNonEmpty(doc.FoodGroupCode, entry.FoodGroupCode, types.FoodGroupCodeForID(entry.ID))),
		FoodGroup:        firstNonEmpty(doc.FoodGroup, entry.FoodGroup),
		ScientificName:   doc.ScientificName,
		AlternativeName:  doc.AlternativeName,
		EdiblePortionPct: doc.EdiblePortionPct,
		ReportID:         doc.ReportID,
		ReportURL:        doc.ReportURL,
		ImageID:          doc.ImageID,
		ImageURL:         doc.ImageURL,
		Nutrients:        []types.Measurement{},
		Energy:           []types.Measurement{},
	}
	if food.FoodGroup == "" {
		food.FoodGroup, _ = types.FoodGroupName(food.FoodGroupCode)
	}

	derivedCategories := []string{}
	for _, md := range slices.Concat(doc.Nutrients, doc.Measurements) {
		m, err := toMeasurement(md, taxonomy)
		if err != nil {
			return nil, &LoadError{Path: path, Err: err}
		}
		if m.Category != "" && !slices.Contains(derivedCategories, m.Category) {
			derivedCategories = append(derivedCategories, m.Category)
		}
		if m.IsEnergy() {
			food.Energy = append(food.Energy, m)
		} else {
			food.Nutrients = append(food.Nutrients, m)
		}
	}

	// Older extracts carry no category list; the categories a food was
	// measured in are taken from its measurements instead.
	food.Categories = doc.Categories
	if food.Categories == nil {
		slices.Sort(derivedCategories)
		food.Categories = derivedCategories
	}
	for _, code := range food.Categories {
		if _, ok := taxonomy.Category(code); !ok {
			return nil, loadErrorf(path, ErrUndefinedCategory, "%q", code)
		}
	}

	if err := l.validate.Struct(food); err != nil {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("%w: %v", ErrInvalidRecord, err)}
	}

	return food, nil
}

// toMeasurement resolves a raw measurement against the taxonomy
func toMeasurement(md measurementDocument, taxonomy *types.Taxonomy) (types.Measurement, error) {
	code := firstNonEmpty(md.Code, md.Key)
	if code == "" {
		return types.Measurement{}, fmt.Errorf("%w: measurement without code", ErrInvalidRecord)
	}

	meta, ok := taxonomy.Nutrient(code)
	if !ok {
		return types.Measurement{}, fmt.Errorf("%w: %q", ErrUndefinedNutrient, code)
	}

	unit := meta.UnitString()
	if md.Unit != nil && *md.Unit != "" {
		if meta.Unit != nil && !strings.EqualFold(*md.Unit, *meta.Unit) {
			return types.Measurement{}, fmt.Errorf("%w: %q is %q, taxonomy declares %q", ErrUnitMismatch, code, *md.Unit, *meta.Unit)
		}
		unit = *md.Unit
	}

	return types.Measurement{
		Code:     code,
		Name:     firstNonEmpty(md.Name, meta.Name),
		Value:    md.Value,
		Unit:     unit,
		Category: firstNonEmpty(md.Category, meta.Category),
	}, nil
}

// readJSON decodes the file at path into v, wrapping failures in a LoadError
func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &LoadError{Path: path, Err: err}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &LoadError{Path: path, Err: fmt.Errorf("%w: %v", ErrMalformed, err)}
	}
	return nil
}

func isSafeID(id string) bool {
	return id != "." && id != ".." && !strings.ContainsAny(id, `/\`) && id == strings.TrimSpace(id)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func shortHash(h string) string {
	if len(h) > 16 {
		return h[:16] + "..."
	}
	return h
}
