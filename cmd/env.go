package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/sardarchitect/anthill/internal/analysis"
	"github.com/sardarchitect/anthill/internal/model"
	"github.com/sardarchitect/anthill/internal/sceneio"
	"github.com/sardarchitect/anthill/internal/store"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "anthill.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &cfg.Store.Pool)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initClassifier builds the element classifier, from the rules file when one
// is configured and from the built-in table otherwise.
func initClassifier() (analysis.Classifier, error) {
	if cfg.Analysis.RulesPath == "" {
		return analysis.DefaultClassifier, nil
	}
	rules, err := analysis.LoadRules(cfg.Analysis.RulesPath)
	if err != nil {
		return nil, eris.Wrap(err, "load classifier rules")
	}
	return rules.Classifier(), nil
}

// sceneSource is a scene resolved from a command argument. ID is set only
// when the scene came from the store.
type sceneSource struct {
	Scene *model.Scene
	ID    string
	Name  string
}

// resolveScene loads the scene named by arg: a path on disk is parsed
// directly, anything else is looked up in the store and re-parsed from its
// stored payload.
func resolveScene(ctx context.Context, arg string) (*sceneSource, error) {
	if _, err := os.Stat(arg); err == nil {
		scene, err := sceneio.LoadSceneFile(arg)
		if err != nil {
			return nil, err
		}
		return &sceneSource{Scene: scene, Name: filepath.Base(arg)}, nil
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	defer st.Close() //nolint:errcheck
	if err := st.Migrate(ctx); err != nil {
		return nil, eris.Wrap(err, "migrate store")
	}

	rec, err := st.GetScene(ctx, arg)
	if err != nil {
		return nil, eris.Wrap(err, "load stored scene")
	}
	if rec == nil {
		return nil, eris.Errorf("no file or stored scene named %q", arg)
	}

	scene, err := sceneio.LoadScene(rec.RawPayload)
	if err != nil {
		return nil, eris.Wrapf(err, "re-parse stored scene %s", rec.ID)
	}
	return &sceneSource{Scene: scene, ID: rec.ID, Name: rec.Name}, nil
}

// buildSceneRecord flattens a parsed scene into its persisted form.
func buildSceneRecord(name string, raw []byte, scene *model.Scene) *model.SceneRecord {
	rec := &model.SceneRecord{
		Name:         name,
		Format:       sceneio.Format(scene),
		ElementCount: scene.ElementCount(),
		RawPayload:   raw,
		Summary:      scene.Summary(),
	}
	if total, ok := scene.TotalCarbon(); ok {
		rec.TotalCarbon = &total
	}
	return rec
}
