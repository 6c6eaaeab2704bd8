package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/odvcencio/revgraph/pkg/object"
	"github.com/odvcencio/revgraph/pkg/repo"
	"github.com/odvcencio/revgraph/pkg/storage"
)

func newImportCmd() *cobra.Command {
	var pebbleDir string

	cmd := &cobra.Command{
		Use:   "import [revs...]",
		Short: "Copy reachable objects into a pebble store",
		Long: "Copy every object reachable from the given revisions, or from HEAD and\n" +
			"all refs when none are given, into a pebble database. The resolved\n" +
			"names are recorded so later commands using --store pebble find them.",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			named, err := importRoots(r, args)
			if err != nil {
				return err
			}

			src, err := storage.OpenGit(r.GitDir)
			if err != nil {
				return err
			}
			defer src.Close()

			if pebbleDir == "" {
				pebbleDir = r.DefaultPebbleDir()
			}
			dst, err := storage.OpenPebble(pebbleDir, nil)
			if err != nil {
				return err
			}
			defer dst.Close()

			roots := make([]object.ObjectID, 0, len(named))
			for _, n := range named {
				roots = append(roots, n.id)
			}
			added, err := dst.Import(src, roots)
			if err != nil {
				return err
			}
			for _, n := range named {
				if err := dst.SetRef(n.name, n.id); err != nil {
					return err
				}
			}

			logger.WithFields(logrus.Fields{"dir": pebbleDir, "roots": len(roots)}).Debug("import finished")
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d objects, %d refs into %s\n", added, len(named), pebbleDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&pebbleDir, "pebble", "", "pebble database directory (default .git/revgraph/pebble)")
	return cmd
}

type namedID struct {
	name string
	id   object.ObjectID
}

// importRoots resolves args, or HEAD plus every ref when args is empty.
// An unborn HEAD is skipped.
func importRoots(r *repo.Repo, args []string) ([]namedID, error) {
	if len(args) > 0 {
		out := make([]namedID, 0, len(args))
		for _, name := range args {
			id, err := r.ResolveRef(name)
			if err != nil {
				return nil, fmt.Errorf("import: %w", err)
			}
			out = append(out, namedID{name: name, id: id})
		}
		return out, nil
	}

	var out []namedID
	if id, err := r.ResolveRef("HEAD"); err == nil {
		out = append(out, namedID{name: "HEAD", id: id})
	}
	refs, err := r.ListRefs("refs/")
	if err != nil {
		return nil, fmt.Errorf("import: %w", err)
	}
	for _, ref := range refs {
		if ref.ID.IsZero() {
			continue
		}
		out = append(out, namedID{name: ref.Name, id: ref.ID})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("import: no refs to import")
	}
	return out, nil
}
