package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"gsjt/internal/logger"
	"gsjt/internal/model"
	"gsjt/internal/repository"
	"gsjt/internal/scoring"
)

var validate = validator.New()

// ImportReport summarizes one import run
type ImportReport struct {
	Version  model.SchemaVersion `json:"version"`
	Declared int                 `json:"declared"`
	Imported int                 `json:"imported"`
}

// PruneReport lists the scenario ids a prune removed (or would remove)
type PruneReport struct {
	Kept    int      `json:"kept"`
	Removed []string `json:"removed"`
	DryRun  bool     `json:"dry_run"`
}

// ImportService loads scenario content files into the catalog store
type ImportService struct {
	repo    repository.ScenarioRepo
	catalog *CatalogService
}

// NewImportService creates a new import service. catalog may be nil when
// no cache needs invalidating.
func NewImportService(repo repository.ScenarioRepo, catalog *CatalogService) *ImportService {
	return &ImportService{
		repo:    repo,
		catalog: catalog,
	}
}

// ParseFile decodes a content file; .yaml and .yml are YAML, anything else JSON
func ParseFile(name string, data []byte) (*model.CatalogFile, error) {
	var file model.CatalogFile
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, errors.Wrapf(err, "parse %s", name)
		}
	default:
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, errors.Wrapf(err, "parse %s", name)
		}
	}
	return &file, nil
}

// LoadFile reads and decodes a content file from disk
func LoadFile(path string) (*model.CatalogFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read import file")
	}
	return ParseFile(path, data)
}

// ToScenarios converts a validated file into catalog scenarios. Every option
// is tagged with the file's schema and each scenario gets a category.
func ToScenarios(file *model.CatalogFile) []*model.Scenario {
	version := file.SystemMetadata.SchemaVersion()
	out := make([]*model.Scenario, 0, len(file.Scenarios))
	for _, cs := range file.Scenarios {
		s := &model.Scenario{
			ScenarioID:      cs.ScenarioID,
			Title:           cs.Title,
			TitleZhHK:       cs.TitleZhHK,
			Description:     cs.Description,
			DescriptionZhHK: cs.DescriptionZhHK,
			IllustrationID:  cs.IllustrationID,
			CompetencyTags:  cs.CompetencyTags,
			Category:        cs.Category,
			Options:         make([]model.Option, 0, len(cs.Options)),
		}
		if s.CompetencyTags == nil {
			s.CompetencyTags = []string{}
		}
		if s.Category == "" {
			if c, ok := scoring.CategoryFromID(s.ScenarioID); ok {
				s.Category = c
			}
		}
		for _, co := range cs.Options {
			s.Options = append(s.Options, model.Option{
				OptionID:       co.OptionID,
				Text:           co.Text,
				TextZhHK:       co.TextZhHK,
				NextScenarioID: co.NextScenarioID,
				Scores:         model.VectorFromFields(version, co.Scores),
			})
		}
		out = append(out, s)
	}
	return out
}

// Import validates the file and upserts every scenario, replacing its options
func (s *ImportService) Import(ctx context.Context, file *model.CatalogFile) (*ImportReport, error) {
	if file == nil || len(file.Scenarios) == 0 {
		return nil, ErrEmptyImport
	}
	if err := validate.Struct(file); err != nil {
		return nil, errors.Wrap(err, "invalid import file")
	}

	report := &ImportReport{
		Version:  file.SystemMetadata.SchemaVersion(),
		Declared: file.SystemMetadata.TotalScenarios,
	}
	logger.Info("importing %d scenarios (version %s, schema %s)",
		len(file.Scenarios), file.SystemMetadata.Version, report.Version)

	for _, scenario := range ToScenarios(file) {
		if err := s.repo.Upsert(ctx, scenario); err != nil {
			return report, errors.Wrapf(err, "import %s", scenario.ScenarioID)
		}
		report.Imported++
		logger.Debug("imported %s with %d options", scenario.ScenarioID, len(scenario.Options))
	}

	if report.Declared > 0 && report.Declared != report.Imported {
		logger.Warn("file declares %d scenarios but %d were imported", report.Declared, report.Imported)
	}
	if s.catalog != nil {
		s.catalog.Invalidate(ctx)
	}
	logger.Info("import complete: %d scenarios", report.Imported)
	return report, nil
}

// ImportFile loads path and imports it
func (s *ImportService) ImportFile(ctx context.Context, path string) (*ImportReport, error) {
	file, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return s.Import(ctx, file)
}

// SeedIfEmpty imports path only when the catalog has no scenarios.
// It reports whether an import ran.
func (s *ImportService) SeedIfEmpty(ctx context.Context, path string) (bool, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return false, errors.Wrap(err, "count scenarios")
	}
	if n > 0 {
		logger.Debug("catalog has %d scenarios, skipping seed", n)
		return false, nil
	}
	if _, err := s.ImportFile(ctx, path); err != nil {
		return false, err
	}
	return true, nil
}

// CanonicalScenarioIDs builds SCENARIO_<cat><nnn> for n in 1..perCategory
func CanonicalScenarioIDs(categories []string, perCategory int) []string {
	ids := make([]string, 0, len(categories)*perCategory)
	for _, c := range categories {
		for i := 1; i <= perCategory; i++ {
			ids = append(ids, fmt.Sprintf("SCENARIO_%s%03d", strings.ToUpper(c), i))
		}
	}
	return ids
}

// Prune deletes every stored scenario whose id is not in keep
func (s *ImportService) Prune(ctx context.Context, keep []string, dryRun bool) (*PruneReport, error) {
	scenarios, err := s.repo.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list scenarios")
	}

	keepSet := make(map[string]struct{}, len(keep))
	for _, id := range keep {
		keepSet[id] = struct{}{}
	}

	report := &PruneReport{Removed: []string{}, DryRun: dryRun}
	for _, sc := range scenarios {
		if _, ok := keepSet[sc.ScenarioID]; ok {
			report.Kept++
			continue
		}
		report.Removed = append(report.Removed, sc.ScenarioID)
	}
	sort.Strings(report.Removed)

	if dryRun || len(report.Removed) == 0 {
		return report, nil
	}
	n, err := s.repo.Delete(ctx, report.Removed)
	if err != nil {
		return nil, errors.Wrap(err, "delete scenarios")
	}
	logger.Info("pruned %d scenarios, %d remain", n, report.Kept)
	if s.catalog != nil {
		s.catalog.Invalidate(ctx)
	}
	return report, nil
}
