package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/odvcencio/revgraph/pkg/diff"
	"github.com/odvcencio/revgraph/pkg/object"
	"github.com/odvcencio/revgraph/pkg/revwalk"
	"github.com/odvcencio/revgraph/pkg/treewalk"
)

func newShowCmd() *cobra.Command {
	var patch bool
	var stores storeFlags

	cmd := &cobra.Command{
		Use:   "show [commit-ish]",
		Short: "Show commit metadata and changed files",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(stores)
			if err != nil {
				return err
			}
			defer s.Close()

			target := "HEAD"
			if len(args) == 1 && strings.TrimSpace(args[0]) != "" {
				target = strings.TrimSpace(args[0])
			}
			id, err := s.resolve(target)
			if err != nil {
				return fmt.Errorf("show: %w", err)
			}

			w := revwalk.New(s.src)
			c, err := w.ParseCommit(id)
			if err != nil {
				return fmt.Errorf("show: %w", err)
			}

			out := cmd.OutOrStdout()
			writeHeader(out, c)

			var parentTree object.ObjectID
			if len(c.Parents()) > 0 {
				p := c.Parent(0)
				if err := w.ParseHeaders(p); err != nil {
					return fmt.Errorf("show: parent: %w", err)
				}
				parentTree = p.Tree().ID()
			}
			changes, err := treeChanges(s.src, parentTree, c.Tree().ID())
			if err != nil {
				return fmt.Errorf("show: %w", err)
			}
			if len(changes) == 0 {
				return nil
			}

			fmt.Fprintln(out, "Changes:")
			for _, ch := range changes {
				fmt.Fprintf(out, "  %s %s\n", ch.status, ch.path)
			}
			if !patch {
				return nil
			}
			fmt.Fprintln(out)
			for _, ch := range changes {
				fd, err := ch.fileDiff(s.src)
				if err != nil {
					return fmt.Errorf("show: %s: %w", ch.path, err)
				}
				fmt.Fprint(out, diff.FormatLineDiff(fd))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&patch, "patch", "p", false, "print line diffs of changed files")
	stores.register(cmd)
	return cmd
}

func writeHeader(out io.Writer, c *revwalk.RevCommit) {
	fmt.Fprintf(out, "commit %s\n", c.ID())
	fmt.Fprintf(out, "tree %s\n", c.Tree().ID())
	for _, p := range c.Parents() {
		fmt.Fprintf(out, "parent %s\n", p.ID())
	}
	if a := c.AuthorIdent(); a != nil {
		fmt.Fprintf(out, "Author:     %s <%s>\n", a.Name, a.Email)
		fmt.Fprintf(out, "AuthorDate: %s\n", a.Time().Format(dateLayout))
	}
	if cm := c.CommitterIdent(); cm != nil {
		fmt.Fprintf(out, "Commit:     %s <%s>\n", cm.Name, cm.Email)
		fmt.Fprintf(out, "CommitDate: %s\n", cm.Time().Format(dateLayout))
	}
	if enc := c.Encoding(); enc != "" {
		fmt.Fprintf(out, "Encoding:   %s\n", enc)
	}
	fmt.Fprintln(out)
	writeIndented(out, c.FullMessage())
	fmt.Fprintln(out)
}

type treeChange struct {
	status       string // A, D, M or T
	path         string
	before       object.ObjectID
	after        object.ObjectID
	beforeIsFile bool
	afterIsFile  bool
}

// treeChanges lists the file entries that differ between trees a and b.
// The zero id stands for the empty tree.
func treeChanges(r object.Reader, a, b object.ObjectID) ([]treeChange, error) {
	tw := treewalk.New(r)
	if err := tw.Reset(a, b); err != nil {
		return nil, err
	}
	tw.SetRecursive(true)
	tw.SetFilter(treewalk.AnyDiff)

	var out []treeChange
	for {
		ok, err := tw.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		before, after := tw.FileMode(0), tw.FileMode(1)
		ch := treeChange{
			path:         tw.PathString(),
			before:       tw.ObjectID(0),
			after:        tw.ObjectID(1),
			beforeIsFile: before.IsFile(),
			afterIsFile:  after.IsFile(),
		}
		switch {
		case before == object.ModeMissing:
			ch.status = "A"
		case after == object.ModeMissing:
			ch.status = "D"
		case before != after:
			ch.status = "T"
		default:
			ch.status = "M"
		}
		out = append(out, ch)
	}
}

// fileDiff reads both sides of a change. Sides that are not regular files
// diff as empty.
func (ch treeChange) fileDiff(r object.Reader) (*diff.FileDiff, error) {
	var before, after []byte
	var err error
	if ch.beforeIsFile {
		if before, err = object.ReadTyped(r, ch.before, object.TypeBlob); err != nil {
			return nil, err
		}
	}
	if ch.afterIsFile {
		if after, err = object.ReadTyped(r, ch.after, object.TypeBlob); err != nil {
			return nil, err
		}
	}
	return diff.DiffFiles(ch.path, before, after), nil
}
