package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/odvcencio/revgraph/pkg/object"
	"github.com/odvcencio/revgraph/pkg/repo"
	"github.com/odvcencio/revgraph/pkg/revwalk"
)

const dateLayout = "Mon Jan 2 15:04:05 2006 -0700"

func newLogCmd() *cobra.Command {
	var oneline bool
	var limit int
	var topo, date, reverse, boundary bool
	var stores storeFlags

	cmd := &cobra.Command{
		Use:   "log [revs...] [-- paths...]",
		Short: "Show commit history",
		Long: "Show the commits reachable from the given revisions (HEAD by default).\n" +
			"A revision written ^rev excludes everything reachable from rev. Paths\n" +
			"after -- limit output to commits that changed them.",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(stores)
			if err != nil {
				return err
			}
			defer s.Close()

			revs, paths := args, []string(nil)
			if dash := cmd.ArgsLenAtDash(); dash >= 0 {
				revs, paths = args[:dash], args[dash:]
			}
			start, exclude := splitRevs(revs)

			sorts, err := s.cfg.Log.Sorts()
			if err != nil {
				return err
			}
			if topo || date || reverse || boundary {
				sorts = sorts[:0]
				for _, m := range []struct {
					on   bool
					sort revwalk.RevSort
				}{
					{topo, revwalk.Topo},
					{date, revwalk.CommitTimeDesc},
					{reverse, revwalk.Reverse},
					{boundary, revwalk.Boundary},
				} {
					if m.on {
						sorts = append(sorts, m.sort)
					}
				}
			}
			if !cmd.Flags().Changed("limit") {
				limit = s.cfg.Log.Limit
			}

			logger.WithFields(logrus.Fields{
				"start":   start,
				"exclude": exclude,
				"paths":   paths,
				"sort":    sorts,
				"limit":   limit,
			}).Debug("walking history")

			began := time.Now()
			commits, err := s.repo.Log(s.src, repo.LogOptions{
				Start:   start,
				Exclude: exclude,
				Paths:   paths,
				Sort:    sorts,
				Limit:   limit,
				Resolve: s.resolve,
			})
			if err != nil {
				return err
			}
			logger.WithFields(logrus.Fields{
				"commits": len(commits),
				"elapsed": time.Since(began),
			}).Debug("walk finished")

			if len(commits) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no commits")
				return nil
			}

			headID, _ := s.resolve("HEAD")
			branchName := ""
			if head, err := s.repo.Head(); err == nil {
				branchName = strings.TrimPrefix(head, "refs/heads/")
				if branchName == head {
					branchName = ""
				}
			}

			out := cmd.OutOrStdout()
			for _, c := range commits {
				decoration := buildDecoration(c.ID(), headID, branchName)
				if oneline {
					writeOneline(out, c, s.cfg.Log.Abbrev, decoration)
				} else {
					writeMedium(out, c, decoration)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&oneline, "oneline", false, "compact one-line format")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of commits to show, 0 for all (default from config)")
	cmd.Flags().BoolVar(&topo, "topo-order", false, "never show a parent before all of its children")
	cmd.Flags().BoolVar(&date, "date-order", false, "order strictly by commit time")
	cmd.Flags().BoolVar(&reverse, "reverse", false, "output the selected commits in reverse order")
	cmd.Flags().BoolVar(&boundary, "boundary", false, "also show excluded parents of shown commits")
	stores.register(cmd)

	return cmd
}

// boundaryMark prefixes boundary commits the way git log --boundary does.
func boundaryMark(c *revwalk.RevCommit) string {
	if c.Has(revwalk.FlagBoundary) {
		return "-"
	}
	return ""
}

func writeOneline(out io.Writer, c *revwalk.RevCommit, abbrev int, decoration string) {
	short := boundaryMark(c) + c.ID().Short(abbrev)
	if decoration != "" {
		fmt.Fprintf(out, "%s %s %s\n", short, decoration, c.ShortMessage())
	} else {
		fmt.Fprintf(out, "%s %s\n", short, c.ShortMessage())
	}
}

func writeMedium(out io.Writer, c *revwalk.RevCommit, decoration string) {
	if decoration != "" {
		fmt.Fprintf(out, "commit %s%s %s\n", boundaryMark(c), c.ID(), decoration)
	} else {
		fmt.Fprintf(out, "commit %s%s\n", boundaryMark(c), c.ID())
	}
	if a := c.AuthorIdent(); a != nil {
		fmt.Fprintf(out, "Author: %s <%s>\n", a.Name, a.Email)
		fmt.Fprintf(out, "Date:   %s\n", a.Time().Format(dateLayout))
	}
	fmt.Fprintln(out)
	writeIndented(out, c.FullMessage())
	fmt.Fprintln(out)
}

func writeIndented(out io.Writer, msg string) {
	for _, line := range strings.Split(strings.TrimRight(msg, "\n"), "\n") {
		if line == "" {
			fmt.Fprintln(out)
			continue
		}
		fmt.Fprintf(out, "    %s\n", line)
	}
}

// buildDecoration returns a string like "(HEAD -> main)" if the commit is
// the current HEAD, or "" otherwise.
func buildDecoration(id, headID object.ObjectID, branchName string) string {
	if headID.IsZero() || id != headID {
		return ""
	}
	if branchName != "" {
		return "(HEAD -> " + branchName + ")"
	}
	return "(HEAD)"
}
