package usecase

import (
	"context"
	"log/slog"
	"strings"

	"office-archive-indexer/internal/core/domain"
	"office-archive-indexer/internal/core/ports"
	"office-archive-indexer/internal/infrastructure/vietnamese"
)

// ClassifyUseCase turns a walked path and filename into resolved
// taxonomy entities. Later pipeline steps only fill gaps left by
// earlier ones; the deterministic series scan always runs.
type ClassifyUseCase struct {
	taxonomy  ports.TaxonomyStore
	extractor ports.BrandExtractor
	hints     ports.HintProvider
	logger    *slog.Logger
}

func NewClassifyUseCase(
	taxonomy ports.TaxonomyStore,
	extractor ports.BrandExtractor,
	hints ports.HintProvider,
	logger *slog.Logger,
) *ClassifyUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ClassifyUseCase{
		taxonomy:  taxonomy,
		extractor: extractor,
		hints:     hints,
		logger:    logger,
	}
}

func (uc *ClassifyUseCase) Classify(ctx context.Context, pathSegments []string, fileName string, useAI bool) (*domain.Classification, error) {
	if len(pathSegments) < 3 {
		return nil, domain.ErrInvalidPathStructure
	}

	result := &domain.Classification{Source: domain.SourceHeuristic}

	hint := uc.aiHint(ctx, pathSegments, fileName, useAI)
	if hint != nil {
		result.Source = domain.SourceAI
	} else {
		hint = &domain.ClassificationHint{}
	}

	brandName := uc.resolveBrandName(hint, pathSegments, fileName)

	scan := uc.extractor.SeriesAndModels(fileName)
	if len(scan.Series) > 0 {
		if result.Source == domain.SourceAI {
			result.Source = domain.SourceHybrid
		} else {
			result.Source = domain.SourceRegex
		}
	}
	if brandName == "" {
		brandName = scan.Brand
	}

	tagCandidates := make([]string, 0, len(hint.Tags)+len(hint.Models)+len(scan.Models))
	tagCandidates = append(tagCandidates, hint.Tags...)
	tagCandidates = append(tagCandidates, hint.Models...)
	tagCandidates = append(tagCandidates, scan.Models...)
	if len(pathSegments) > 4 && pathSegments[4] != "" {
		tagCandidates = append(tagCandidates, uc.extractor.ExpandModels(pathSegments[4])...)
	}
	if len(pathSegments) > 5 {
		tagCandidates = append(tagCandidates, pathSegments[5:]...)
	}

	departmentName := pathSegments[0]
	categoryName := firstNonEmpty(pathSegments[1], hint.Category)
	topicName := firstNonEmpty(pathSegments[2], hint.Topic)

	department, err := uc.taxonomy.UpsertDepartment(ctx, departmentName)
	if err != nil {
		return nil, err
	}
	result.Department = department

	category, err := uc.taxonomy.UpsertCategory(ctx, categoryName)
	if err != nil {
		return nil, err
	}
	result.Category = category

	topic, err := uc.resolveTopic(ctx, category.ID, categoryName, topicName)
	if err != nil {
		return nil, err
	}
	result.Topic = topic

	if brandName != "" {
		// Path-segment brand hints are often noisy ("TEST MÁY RICOH"),
		// so the resolved name passes through the whitelist once more.
		if canonical, ok := uc.extractor.Brand(brandName); ok {
			brandName = canonical
		}
		brand, err := uc.taxonomy.UpsertBrand(ctx, brandName)
		if err != nil {
			return nil, err
		}
		result.Brand = brand
	}

	for _, series := range scan.Series {
		model, ok := uc.resolveModel(ctx, series, result.Brand)
		if !ok {
			continue
		}
		result.Models = append(result.Models, *model)
	}

	result.Tags = uc.finalizeTags(tagCandidates)
	return result, nil
}

// aiHint asks the probabilistic classifier when enabled. Any failure
// degrades to deterministic extraction with a warning, never an error.
func (uc *ClassifyUseCase) aiHint(ctx context.Context, pathSegments []string, fileName string, useAI bool) *domain.ClassificationHint {
	if !useAI || uc.hints == nil {
		return nil
	}
	hint, err := uc.hints.Analyze(ctx, fileName, pathSegments)
	if err != nil {
		uc.logger.Warn("ai analysis unavailable, falling back to deterministic extraction",
			"file", fileName, "error", err)
		return nil
	}
	return hint
}

// resolveBrandName walks the fallback chain: AI hint, then the
// optional fourth path segment, then the filename itself.
func (uc *ClassifyUseCase) resolveBrandName(hint *domain.ClassificationHint, pathSegments []string, fileName string) string {
	if hint.Brand != "" {
		return hint.Brand
	}
	if len(pathSegments) > 3 {
		if brand, ok := uc.extractor.Brand(pathSegments[3]); ok {
			return brand
		}
	}
	if brand, ok := uc.extractor.Brand(fileName); ok {
		return brand
	}
	return ""
}

// resolveTopic looks up by (categoryID, slug) and creates on miss. A
// lost creation race is absorbed by re-querying the winner.
func (uc *ClassifyUseCase) resolveTopic(ctx context.Context, categoryID, categoryName, topicName string) (*domain.Topic, error) {
	slug := vietnamese.Slugify(categoryName + "-" + topicName)

	topic, err := uc.taxonomy.GetTopic(ctx, categoryID, slug)
	if err == nil {
		return topic, nil
	}
	if !domain.IsKind(err, domain.ErrNotFound) {
		return nil, err
	}

	candidate := &domain.Topic{Name: topicName, Slug: slug, CategoryID: categoryID}
	createErr := uc.taxonomy.CreateTopic(ctx, candidate)
	if createErr == nil {
		return candidate, nil
	}
	if domain.IsKind(createErr, domain.ErrUniqueViolation) {
		return uc.taxonomy.GetTopic(ctx, categoryID, slug)
	}
	return nil, createErr
}

// resolveModel maps one discovered series label to a MachineModel row,
// backfilling a missing brand link and absorbing creation races. A
// series already owned by a different brand is skipped and logged.
func (uc *ClassifyUseCase) resolveModel(ctx context.Context, series string, brand *domain.Brand) (*domain.MachineModel, bool) {
	model, err := uc.taxonomy.GetModelByName(ctx, series)
	switch {
	case err == nil:
		if brand != nil && model.BrandID == "" {
			if err := uc.taxonomy.SetModelBrand(ctx, model.ID, brand.ID); err != nil {
				uc.logger.Warn("machine model brand backfill failed", "model", series, "error", err)
			} else {
				model.BrandID = brand.ID
			}
			return model, true
		}
		if brand != nil && model.BrandID != brand.ID {
			uc.logger.Warn("machine model name already owned by another brand, skipping link",
				"model", series, "brand", brand.Name)
			return nil, false
		}
		return model, true

	case domain.IsKind(err, domain.ErrNotFound):
		candidate := &domain.MachineModel{Name: series}
		if brand != nil {
			candidate.BrandID = brand.ID
		}
		createErr := uc.taxonomy.CreateModel(ctx, candidate)
		if createErr == nil {
			return candidate, true
		}
		if domain.IsKind(createErr, domain.ErrUniqueViolation) {
			// Another import won the race; accept whichever brand it chose.
			winner, refetchErr := uc.taxonomy.GetModelByName(ctx, series)
			if refetchErr != nil {
				uc.logger.Warn("machine model refetch after race failed", "model", series, "error", refetchErr)
				return nil, false
			}
			return winner, true
		}
		uc.logger.Warn("machine model creation failed", "model", series, "error", createErr)
		return nil, false

	default:
		uc.logger.Warn("machine model lookup failed", "model", series, "error", err)
		return nil, false
	}
}

// finalizeTags deduplicates case-insensitively and drops anything that
// names a known series: series labels never leak into the free-tag set.
func (uc *ClassifyUseCase) finalizeTags(candidates []string) []string {
	seen := make(map[string]struct{}, len(candidates))
	tags := make([]string, 0, len(candidates))
	for _, raw := range candidates {
		tag := strings.TrimSpace(raw)
		if tag == "" {
			continue
		}
		if uc.extractor.IsSeriesLabel(tag) {
			continue
		}
		key := strings.ToLower(tag)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
