package translation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"telc-go/internal/fieldpath"
	"telc-go/internal/formatting"
	"telc-go/internal/model"
	"telc-go/internal/quality"
)

// DefaultConcurrency is the number of fields translated in parallel per request.
const DefaultConcurrency = 4

// Service orchestrates the translation of free text and exam documents through
// the provider chain, the quality validator and the two cache layers.
type Service struct {
	store       Store
	translator  Translator
	validator   *quality.Validator
	addressor   *fieldpath.Addressor
	logger      Logger
	clock       Clock
	idgen       IDGenerator
	recorder    Recorder
	concurrency int
}

// NewService creates a new Service with the provided dependencies.
func NewService(store Store, translator Translator, validator *quality.Validator, logger Logger, clock Clock, idgen IDGenerator) *Service {
	return &Service{
		store:       store,
		translator:  translator,
		validator:   validator,
		addressor:   fieldpath.NewAddressor(ExamSchema),
		logger:      logger,
		clock:       clock,
		idgen:       idgen,
		recorder:    nopRecorder{},
		concurrency: DefaultConcurrency,
	}
}

// WithConcurrency sets how many fields are translated in parallel. Values
// below 1 mean 1.
func (s *Service) WithConcurrency(n int) *Service {
	if n < 1 {
		n = 1
	}
	s.concurrency = n
	return s
}

// WithRecorder sets the receiver of cache and validation events.
func (s *Service) WithRecorder(r Recorder) *Service {
	s.recorder = r
	return s
}

// ExamTranslation is a fully translated exam document.
type ExamTranslation struct {
	ExamID     int64
	TargetLang string
	Payload    json.RawMessage
	// FromSnapshot is true when the payload came from the snapshot cache
	// without any field being looked at.
	FromSnapshot bool
}

// QualityStats aggregates validator results over a translate-parts request.
type QualityStats struct {
	TotalTranslations  int     `json:"total_translations"`
	HighQuality        int     `json:"high_quality"`
	GoodQuality        int     `json:"good_quality"`
	PoorQuality        int     `json:"poor_quality"`
	CachedTranslations int     `json:"cached_translations"`
	AverageScore       float64 `json:"average_score"`
}

// PartsTranslation is the result of translating selected fields of an exam.
type PartsTranslation struct {
	Translations map[string]string
	TargetLang   string
	Stats        QualityStats
}

// fieldResult is the outcome of translating one field.
type fieldResult struct {
	text   string
	score  int
	cached bool
	// stored is true when a fresh translation was written to the cache.
	stored bool
}

// NormalizeLang returns the cache key form of a language code, e.g. "fa" -> "FA".
func NormalizeLang(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// TranslateText translates free text. Line breaks, <br> tags and HTML entities
// survive the round trip through the providers. If no provider produces a
// translation the source text is returned unchanged. Blank input is returned as is.
func (s *Service) TranslateText(ctx context.Context, text, sourceLang, targetLang string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return text
	}

	preserved, restore := formatting.Preserve(trimmed)
	res, ok := s.translator.Translate(ctx, preserved, NormalizeLang(sourceLang), NormalizeLang(targetLang))
	if !ok {
		s.logger.Info("no provider produced a translation, returning source", "length", len(trimmed))
		return text
	}

	translated := Cleanup(formatting.Restore(res.Text, restore))
	if translated == "" {
		return text
	}
	s.logger.Debug("text translated", "provider", res.Provider, "length", len(trimmed))
	return translated
}

// Validate scores a translation with the configured validator.
func (s *Service) Validate(original, translated, sourceLang, targetLang string) quality.Result {
	return s.validator.Validate(original, translated, NormalizeLang(sourceLang), NormalizeLang(targetLang))
}

// TranslateExam returns the whole exam translated into targetLang. A stored
// snapshot is returned verbatim while the exam's translatable content and the
// validator settings are unchanged. Otherwise every field goes through the
// field cache and the snapshot is replaced. It returns model.ErrExamNotFound
// for an unknown exam.
func (s *Service) TranslateExam(ctx context.Context, examID int64, sourceLang, targetLang string) (*ExamTranslation, error) {
	sourceLang, targetLang = NormalizeLang(sourceLang), NormalizeLang(targetLang)

	doc, err := s.loadExam(ctx, examID)
	if err != nil {
		return nil, err
	}

	leaves := s.addressor.Enumerate(doc)
	currentHash := fieldpath.HashLeaves(leaves)
	fingerprint := s.validator.Fingerprint()

	snap, err := s.store.GetSnapshot(ctx, examID, targetLang)
	if err != nil {
		s.logger.Error("snapshot lookup failed", "exam_id", examID, "target_lang", targetLang, "error", err)
		snap = nil
	}
	if snap != nil && snap.SourceHash == currentHash && snap.ValidatorFingerprint == fingerprint {
		s.recorder.SnapshotHit()
		s.logger.Debug("snapshot hit", "exam_id", examID, "target_lang", targetLang)
		return &ExamTranslation{
			ExamID:       examID,
			TargetLang:   targetLang,
			Payload:      json.RawMessage(snap.Payload),
			FromSnapshot: true,
		}, nil
	}
	s.recorder.SnapshotMiss()

	results := s.translateFields(ctx, examID, leaves, sourceLang, targetLang)

	out := doc.Clone()
	for i, leaf := range leaves {
		if err := out.Set(leaf.Path, results[i].text); err != nil {
			s.logger.Warn("could not apply translation", "exam_id", examID, "path", leaf.Path, "error", err)
		}
	}

	now := s.clock.Now()
	newSnap := &model.DocumentSnapshot{
		ID:                   s.idgen.New(),
		ResourceID:           examID,
		TargetLang:           targetLang,
		SourceHash:           currentHash,
		ValidatorFingerprint: fingerprint,
		Payload:              out.Bytes(),
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := s.store.UpsertSnapshot(ctx, newSnap); err != nil {
		s.logger.Error("storing snapshot failed", "exam_id", examID, "target_lang", targetLang, "error", err)
	}

	s.logger.Info("exam translated", "exam_id", examID, "target_lang", targetLang, "fields", len(leaves))
	return &ExamTranslation{
		ExamID:     examID,
		TargetLang: targetLang,
		Payload:    json.RawMessage(out.Bytes()),
	}, nil
}

// TranslateParts translates the fields named by paths. Paths that are malformed
// or do not resolve to a scalar are skipped. A path listed twice is translated
// once but counted in the stats for every occurrence. Snapshots are neither read nor
// written. It returns model.ErrExamNotFound for an unknown exam.
func (s *Service) TranslateParts(ctx context.Context, examID int64, paths []string, sourceLang, targetLang string) (*PartsTranslation, error) {
	sourceLang, targetLang = NormalizeLang(sourceLang), NormalizeLang(targetLang)

	doc, err := s.loadExam(ctx, examID)
	if err != nil {
		return nil, err
	}

	// Each distinct path is translated once. occurrences maps every resolvable
	// requested path, repeats included, to its leaf.
	var leaves []fieldpath.Leaf
	var occurrences []int
	index := make(map[string]int, len(paths))
	for _, path := range paths {
		if i, ok := index[path]; ok {
			occurrences = append(occurrences, i)
			continue
		}
		value, ok := doc.Get(path)
		if !ok {
			s.logger.Debug("skipping unresolvable path", "exam_id", examID, "path", path)
			continue
		}
		index[path] = len(leaves)
		occurrences = append(occurrences, len(leaves))
		leaves = append(leaves, fieldpath.Leaf{Path: path, Value: value})
	}

	results := s.translateFields(ctx, examID, leaves, sourceLang, targetLang)

	out := &PartsTranslation{
		Translations: make(map[string]string, len(leaves)),
		TargetLang:   targetLang,
	}
	for i, leaf := range leaves {
		out.Translations[leaf.Path] = results[i].text
	}

	// A repeated path counts again; it is a cache hit once the first
	// occurrence was served from or written to the cache.
	total := 0
	counted := make([]bool, len(leaves))
	for _, i := range occurrences {
		r := results[i]
		cached := r.cached || (counted[i] && r.stored)
		counted[i] = true

		out.Stats.TotalTranslations++
		total += r.score
		if cached {
			out.Stats.CachedTranslations++
		}
		switch {
		case r.score >= 90:
			out.Stats.HighQuality++
		case r.score >= 70:
			out.Stats.GoodQuality++
		default:
			out.Stats.PoorQuality++
		}
	}
	if out.Stats.TotalTranslations > 0 {
		avg := float64(total) / float64(out.Stats.TotalTranslations)
		out.Stats.AverageScore = math.Round(avg*10) / 10
	}

	s.logger.Info("exam parts translated",
		"exam_id", examID,
		"target_lang", targetLang,
		"total", out.Stats.TotalTranslations,
		"cached", out.Stats.CachedTranslations,
		"average_score", out.Stats.AverageScore)
	return out, nil
}

func (s *Service) loadExam(ctx context.Context, examID int64) (*fieldpath.Document, error) {
	exam, err := s.store.GetExam(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("loading exam %d: %w", examID, err)
	}
	if exam == nil {
		return nil, model.ErrExamNotFound
	}
	data, err := json.Marshal(exam)
	if err != nil {
		return nil, fmt.Errorf("encoding exam %d: %w", examID, err)
	}
	return fieldpath.NewDocument(data)
}

// translateFields translates leaves with at most s.concurrency in flight.
// Results are returned in the order of leaves.
func (s *Service) translateFields(ctx context.Context, examID int64, leaves []fieldpath.Leaf, sourceLang, targetLang string) []fieldResult {
	results := make([]fieldResult, len(leaves))

	sem := make(chan struct{}, s.concurrency)
	var wg sync.WaitGroup
	for i, leaf := range leaves {
		wg.Add(1)
		go func(idx int, leaf fieldpath.Leaf) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			results[idx] = s.translateField(ctx, examID, leaf.Path, leaf.Value, sourceLang, targetLang)
		}(i, leaf)
	}
	wg.Wait()
	return results
}

// translateField returns the translation of one field. A cache hit is
// re-validated first; a hit that no longer passes is deleted and regenerated.
// Fresh translations are cached only when valid.
func (s *Service) translateField(ctx context.Context, examID int64, path, text, sourceLang, targetLang string) fieldResult {
	key := model.CacheKey{
		ResourceType: model.ResourceExam,
		ResourceID:   examID,
		Path:         path,
		SourceLang:   sourceLang,
		TargetLang:   targetLang,
		SourceHash:   fieldpath.HashText(text),
	}

	entry, err := s.store.LookupCacheEntry(ctx, key)
	if err != nil {
		s.logger.Error("cache lookup failed", "path", path, "error", err)
		entry = nil
	}
	if entry != nil {
		res := s.validator.Validate(text, entry.TranslatedText, sourceLang, targetLang)
		if res.Valid {
			s.recorder.CacheHit()
			if err := s.store.TouchCacheEntry(ctx, entry.ID, s.clock.Now()); err != nil {
				s.logger.Warn("touching cache entry failed", "path", path, "error", err)
			}
			return fieldResult{text: entry.TranslatedText, score: res.Score, cached: true}
		}

		s.logger.Info("dropping cached translation that fails validation", "path", path, "issues", res.Issues)
		s.recorder.CacheInvalidated()
		if err := s.store.InvalidateCacheEntry(ctx, entry.ID); err != nil {
			s.logger.Error("invalidating cache entry failed", "path", path, "error", err)
		}
	}
	s.recorder.CacheMiss()

	translated := s.TranslateText(ctx, text, sourceLang, targetLang)
	if strings.TrimSpace(translated) == strings.TrimSpace(text) {
		s.recorder.Validated(false)
		s.logger.Warn("field left untranslated, not caching", "path", path)
		return fieldResult{text: translated}
	}
	res := s.validator.Validate(text, translated, sourceLang, targetLang)
	s.recorder.Validated(res.Valid)
	if !res.Valid {
		s.logger.Warn("translation failed validation, not caching",
			"path", path, "score", res.Score, "issues", res.Issues)
		return fieldResult{text: translated, score: res.Score}
	}

	now := s.clock.Now()
	err = s.store.StoreCacheEntry(ctx, &model.CacheEntry{
		ID:             s.idgen.New(),
		ResourceType:   key.ResourceType,
		ResourceID:     key.ResourceID,
		Path:           key.Path,
		SourceLang:     key.SourceLang,
		TargetLang:     key.TargetLang,
		SourceHash:     key.SourceHash,
		TranslatedText: translated,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	switch {
	case errors.Is(err, model.ErrDuplicateKey):
		s.logger.Debug("cache entry already stored by a concurrent request", "path", path)
	case err != nil:
		s.logger.Error("storing cache entry failed", "path", path, "error", err)
	}
	return fieldResult{text: translated, score: res.Score, stored: err == nil}
}
