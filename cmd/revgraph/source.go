package main

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/odvcencio/revgraph/pkg/object"
	"github.com/odvcencio/revgraph/pkg/repo"
	"github.com/odvcencio/revgraph/pkg/storage"
)

// storeFlags are shared by commands that read objects.
type storeFlags struct {
	store     string
	pebbleDir string
}

func (f *storeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.store, "store", "", "object source: git, loose or pebble (default from config)")
	cmd.Flags().StringVar(&f.pebbleDir, "pebble", "", "pebble database directory (default .git/revgraph/pebble)")
}

// session is an opened repository together with the object source and
// revision resolver a command reads through.
type session struct {
	repo    *repo.Repo
	cfg     *repo.Config
	src     repo.Source
	kind    repo.StoreKind
	resolve func(string) (object.ObjectID, error)
}

func openSession(flags storeFlags) (*session, error) {
	r, err := repo.Open(".")
	if err != nil {
		return nil, err
	}
	cfg, err := r.ReadConfig()
	if err != nil {
		return nil, err
	}

	name := cfg.Log.Store
	if flags.store != "" {
		name = flags.store
	}
	kind, err := repo.ParseStoreKind(name)
	if err != nil {
		return nil, err
	}
	src, err := r.OpenSource(kind, flags.pebbleDir)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", kind, err)
	}
	logger.WithFields(logrus.Fields{"store": kind, "git_dir": r.GitDir}).Debug("opened object source")

	s := &session{repo: r, cfg: cfg, src: src, kind: kind, resolve: r.ResolveRef}
	if ps, ok := src.(*storage.PebbleStore); ok {
		s.resolve = pebbleResolver(ps, r)
	}
	return s, nil
}

func (s *session) Close() error {
	return s.src.Close()
}

// pebbleResolver resolves through the refs recorded by import first and
// falls back to the repository's own refs.
func pebbleResolver(ps *storage.PebbleStore, r *repo.Repo) func(string) (object.ObjectID, error) {
	return func(name string) (object.ObjectID, error) {
		if id, err := ps.Ref(name); err == nil {
			logger.WithField("rev", name).Debug("resolved from pebble refs")
			return id, nil
		}
		return r.ResolveRef(name)
	}
}

// splitRevs separates ^rev exclusions from start revisions.
func splitRevs(args []string) (start, exclude []string) {
	for _, a := range args {
		if rev, ok := strings.CutPrefix(a, "^"); ok {
			exclude = append(exclude, rev)
			continue
		}
		start = append(start, a)
	}
	return start, exclude
}
