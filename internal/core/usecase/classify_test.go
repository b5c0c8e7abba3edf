package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"office-archive-indexer/internal/core/domain"
	"office-archive-indexer/internal/infrastructure/extract"
)

// taxonomyFake is an in-memory TaxonomyStore with the same natural-key
// semantics as the Postgres repository.
type taxonomyFake struct {
	departments map[string]*domain.Department
	categories  map[string]*domain.Category
	topics      map[string]*domain.Topic
	brands      map[string]*domain.Brand
	models      map[string]*domain.MachineModel

	createTopicErr       error
	createModelErr       error
	missFirstModelLookup bool
	nextID               int
}

func newTaxonomyFake() *taxonomyFake {
	return &taxonomyFake{
		departments: map[string]*domain.Department{},
		categories:  map[string]*domain.Category{},
		topics:      map[string]*domain.Topic{},
		brands:      map[string]*domain.Brand{},
		models:      map[string]*domain.MachineModel{},
	}
}

func (f *taxonomyFake) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%03d", prefix, f.nextID)
}

func (f *taxonomyFake) UpsertDepartment(_ context.Context, name string) (*domain.Department, error) {
	if existing, ok := f.departments[name]; ok {
		return existing, nil
	}
	dept := &domain.Department{ID: f.id("dept"), Name: name}
	f.departments[name] = dept
	return dept, nil
}

func (f *taxonomyFake) UpsertCategory(_ context.Context, name string) (*domain.Category, error) {
	if existing, ok := f.categories[name]; ok {
		return existing, nil
	}
	cat := &domain.Category{ID: f.id("cat"), Name: name}
	f.categories[name] = cat
	return cat, nil
}

func (f *taxonomyFake) GetTopic(_ context.Context, categoryID, slug string) (*domain.Topic, error) {
	if topic, ok := f.topics[categoryID+"/"+slug]; ok {
		return topic, nil
	}
	return nil, domain.ErrNotFound
}

func (f *taxonomyFake) CreateTopic(_ context.Context, topic *domain.Topic) error {
	if f.createTopicErr != nil {
		return f.createTopicErr
	}
	if topic.ID == "" {
		topic.ID = f.id("topic")
	}
	f.topics[topic.CategoryID+"/"+topic.Slug] = topic
	return nil
}

func (f *taxonomyFake) UpsertBrand(_ context.Context, name string) (*domain.Brand, error) {
	if existing, ok := f.brands[name]; ok {
		return existing, nil
	}
	brand := &domain.Brand{ID: f.id("brand"), Name: name}
	f.brands[name] = brand
	return brand, nil
}

func (f *taxonomyFake) GetModelByName(_ context.Context, name string) (*domain.MachineModel, error) {
	if f.missFirstModelLookup {
		f.missFirstModelLookup = false
		return nil, domain.ErrNotFound
	}
	if model, ok := f.models[name]; ok {
		copied := *model
		return &copied, nil
	}
	return nil, domain.ErrNotFound
}

func (f *taxonomyFake) CreateModel(_ context.Context, model *domain.MachineModel) error {
	if f.createModelErr != nil {
		return f.createModelErr
	}
	if _, exists := f.models[model.Name]; exists {
		return domain.ErrUniqueViolation
	}
	if model.ID == "" {
		model.ID = f.id("model")
	}
	f.models[model.Name] = model
	return nil
}

func (f *taxonomyFake) SetModelBrand(_ context.Context, modelID, brandID string) error {
	for _, model := range f.models {
		if model.ID == modelID {
			model.BrandID = brandID
			return nil
		}
	}
	return domain.ErrNotFound
}

type hintFake struct {
	hint  *domain.ClassificationHint
	err   error
	calls int
}

func (f *hintFake) Analyze(context.Context, string, []string) (*domain.ClassificationHint, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.hint, nil
}

func newClassifyUnderTest(taxonomy *taxonomyFake, hints *hintFake) *ClassifyUseCase {
	logger := slog.New(slog.DiscardHandler)
	if hints == nil {
		return NewClassifyUseCase(taxonomy, extract.New(), nil, logger)
	}
	return NewClassifyUseCase(taxonomy, extract.New(), hints, logger)
}

func TestClassifyRejectsShortPaths(t *testing.T) {
	uc := newClassifyUnderTest(newTaxonomyFake(), nil)

	_, err := uc.Classify(context.Background(), []string{"IT", "Tài liệu"}, "manual.pdf", false)
	if !errors.Is(err, domain.ErrInvalidPathStructure) {
		t.Fatalf("expected ErrInvalidPathStructure, got %v", err)
	}
}

func TestClassifyPathBrandWinsOverFilename(t *testing.T) {
	taxonomy := newTaxonomyFake()
	uc := newClassifyUnderTest(taxonomy, nil)

	segments := []string{"IT", "Tài liệu", "Hướng dẫn sử dụng", "Ricoh"}
	result, err := uc.Classify(context.Background(), segments, "HP LaserJet Pro M404dn.pdf", false)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if result.Brand == nil || result.Brand.Name != "Ricoh" {
		t.Fatalf("expected brand Ricoh from path segment, got %+v", result.Brand)
	}
	if result.Department.Name != "IT" || result.Category.Name != "Tài liệu" {
		t.Fatalf("unexpected department/category: %+v / %+v", result.Department, result.Category)
	}
	if result.Topic.Slug != "tai-lieu-huong-dan-su-dung" {
		t.Fatalf("unexpected topic slug %q", result.Topic.Slug)
	}
}

func TestClassifyFilenameBrandFallback(t *testing.T) {
	taxonomy := newTaxonomyFake()
	uc := newClassifyUnderTest(taxonomy, nil)

	segments := []string{"IT", "Tài liệu", "Firmware"}
	result, err := uc.Classify(context.Background(), segments, "COPY TOSHIBA MÀU e-Studio 557.pdf", false)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if result.Brand == nil || result.Brand.Name != "Toshiba" {
		t.Fatalf("expected brand Toshiba from filename, got %+v", result.Brand)
	}
	if len(result.Models) != 1 || result.Models[0].Name != "e-Studio" {
		t.Fatalf("expected e-Studio series model, got %+v", result.Models)
	}
	if result.Source != domain.SourceRegex {
		t.Fatalf("expected regex provenance, got %s", result.Source)
	}
}

func TestClassifySpecificModelsBecomeTagsNotModels(t *testing.T) {
	taxonomy := newTaxonomyFake()
	uc := newClassifyUnderTest(taxonomy, nil)

	segments := []string{"Kỹ thuật", "Tài liệu", "Service Manual", "Ricoh"}
	result, err := uc.Classify(context.Background(), segments, "Service Manual MPC 3054-4054-5054.pdf", false)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if len(result.Models) != 1 || result.Models[0].Name != "MPC" {
		t.Fatalf("expected only the MPC series, got %+v", result.Models)
	}
	want := map[string]bool{"MPC 3054": true, "MPC 4054": true, "MPC 5054": true}
	if len(result.Tags) != len(want) {
		t.Fatalf("unexpected tags %v", result.Tags)
	}
	for _, tag := range result.Tags {
		if !want[tag] {
			t.Fatalf("unexpected tag %q in %v", tag, result.Tags)
		}
	}
	if result.Models[0].BrandID != result.Brand.ID {
		t.Fatalf("expected model linked to brand, got %+v", result.Models[0])
	}
}

func TestClassifySeriesLabelFilteredFromTags(t *testing.T) {
	taxonomy := newTaxonomyFake()
	uc := newClassifyUnderTest(taxonomy, nil)

	segments := []string{"IT", "Tài liệu", "Hướng dẫn sử dụng", "Ricoh", "", "mpc", "Driver"}
	result, err := uc.Classify(context.Background(), segments, "MPC 3054 manual.pdf", false)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	for _, tag := range result.Tags {
		if strings.EqualFold(tag, "mpc") {
			t.Fatalf("series label leaked into tags: %v", result.Tags)
		}
	}
	found := false
	for _, tag := range result.Tags {
		if tag == "Driver" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected raw path segment tag Driver, got %v", result.Tags)
	}
}

func TestClassifyIsIdempotent(t *testing.T) {
	taxonomy := newTaxonomyFake()
	uc := newClassifyUnderTest(taxonomy, nil)

	segments := []string{"IT", "Tài liệu", "Hướng dẫn sử dụng", "Ricoh"}
	first, err := uc.Classify(context.Background(), segments, "MPC 3054 manual.pdf", false)
	if err != nil {
		t.Fatalf("first Classify() error = %v", err)
	}
	second, err := uc.Classify(context.Background(), segments, "MPC 3054 manual.pdf", false)
	if err != nil {
		t.Fatalf("second Classify() error = %v", err)
	}

	if first.Department.ID != second.Department.ID ||
		first.Category.ID != second.Category.ID ||
		first.Topic.ID != second.Topic.ID ||
		first.Brand.ID != second.Brand.ID {
		t.Fatalf("expected identical entity ids across runs")
	}
	if len(taxonomy.brands) != 1 || len(taxonomy.models) != 1 {
		t.Fatalf("expected no duplicate rows, got %d brands / %d models",
			len(taxonomy.brands), len(taxonomy.models))
	}
}

func TestClassifyAIHintDrivesProvenanceAndFields(t *testing.T) {
	taxonomy := newTaxonomyFake()
	hints := &hintFake{hint: &domain.ClassificationHint{
		Brand:  "RICOH",
		Models: []string{"MPC 6502"},
		Tags:   []string{"color"},
	}}
	uc := newClassifyUnderTest(taxonomy, hints)

	segments := []string{"IT", "Tài liệu", "Hướng dẫn sử dụng"}
	result, err := uc.Classify(context.Background(), segments, "MPC 6502 guide.pdf", true)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if hints.calls != 1 {
		t.Fatalf("expected one AI call, got %d", hints.calls)
	}
	// Brand from hint is re-canonicalized through the whitelist.
	if result.Brand == nil || result.Brand.Name != "Ricoh" {
		t.Fatalf("expected canonical Ricoh, got %+v", result.Brand)
	}
	// Deterministic scan still ran, so provenance is hybrid.
	if result.Source != domain.SourceHybrid {
		t.Fatalf("expected hybrid provenance, got %s", result.Source)
	}
	hasColor := false
	for _, tag := range result.Tags {
		if tag == "color" {
			hasColor = true
		}
	}
	if !hasColor {
		t.Fatalf("expected AI tag retained, got %v", result.Tags)
	}
}

func TestClassifyAIFailureDegradesToDeterministic(t *testing.T) {
	taxonomy := newTaxonomyFake()
	hints := &hintFake{err: errors.New("model unavailable")}
	uc := newClassifyUnderTest(taxonomy, hints)

	segments := []string{"IT", "Tài liệu", "Hướng dẫn sử dụng", "Ricoh"}
	result, err := uc.Classify(context.Background(), segments, "MPC 3054 manual.pdf", true)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if result.Source != domain.SourceRegex {
		t.Fatalf("expected regex provenance after AI degrade, got %s", result.Source)
	}
	if result.Brand == nil || result.Brand.Name != "Ricoh" {
		t.Fatalf("expected path-segment brand after degrade, got %+v", result.Brand)
	}
}

func TestClassifyModelConflictSkipsLink(t *testing.T) {
	taxonomy := newTaxonomyFake()
	taxonomy.models["MPC"] = &domain.MachineModel{ID: "model-x", Name: "MPC", BrandID: "brand-other"}
	uc := newClassifyUnderTest(taxonomy, nil)

	segments := []string{"IT", "Tài liệu", "Hướng dẫn sử dụng", "Ricoh"}
	result, err := uc.Classify(context.Background(), segments, "MPC 3054 manual.pdf", false)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if len(result.Models) != 0 {
		t.Fatalf("expected conflicting model skipped, got %+v", result.Models)
	}
}

func TestClassifyModelCreationRaceRefetches(t *testing.T) {
	taxonomy := newTaxonomyFake()
	// Simulate the race: the row exists but the first lookup misses it,
	// so the create fails uniqueness and the refetch finds the winner.
	taxonomy.models["MPC"] = &domain.MachineModel{ID: "model-won", Name: "MPC", BrandID: "brand-z"}
	taxonomy.missFirstModelLookup = true
	taxonomy.createModelErr = domain.ErrUniqueViolation
	uc := newClassifyUnderTest(taxonomy, nil)

	segments := []string{"IT", "Tài liệu", "Hướng dẫn sử dụng", "Ricoh"}

	result, err := uc.Classify(context.Background(), segments, "MPC 3054 manual.pdf", false)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if len(result.Models) != 1 || result.Models[0].ID != "model-won" {
		t.Fatalf("expected race winner accepted, got %+v", result.Models)
	}
}

func TestClassifyBrandBackfillOnExistingModel(t *testing.T) {
	taxonomy := newTaxonomyFake()
	taxonomy.models["MPC"] = &domain.MachineModel{ID: "model-1", Name: "MPC"}
	uc := newClassifyUnderTest(taxonomy, nil)

	segments := []string{"IT", "Tài liệu", "Hướng dẫn sử dụng", "Ricoh"}
	result, err := uc.Classify(context.Background(), segments, "MPC 3054 manual.pdf", false)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if len(result.Models) != 1 || result.Models[0].BrandID == "" {
		t.Fatalf("expected brand backfill, got %+v", result.Models)
	}
	if taxonomy.models["MPC"].BrandID != result.Brand.ID {
		t.Fatalf("expected stored model updated, got %+v", taxonomy.models["MPC"])
	}
}
