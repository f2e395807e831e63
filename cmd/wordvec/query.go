package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	textvec "github.com/vpatel95/text-vector"
	"github.com/vpatel95/text-vector/cache"
	"github.com/vpatel95/text-vector/model"
)

const exitCommand = "EXIT"

func distanceCmd(root *rootOptions) *cobra.Command {
	opts := cache.DefaultOptions()

	cmd := &cobra.Command{
		Use:   "distance [model]",
		Short: "Interactively print the words nearest to a word or sentence",
		Long: `Read words or sentences from stdin and print the closest words in the model.
Type EXIT to quit.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := root.logger(cmd)
			m, err := loadModel(args, log)
			if err != nil {
				return err
			}
			c := cache.New(m.Encoder(), m.WordModel(), opts)
			err = runDistance(cmd.InOrStdin(), cmd.OutOrStdout(), c)

			s := c.Stats()
			log.WithFields(logrus.Fields{
				"hits":     s.Hits,
				"misses":   s.Misses,
				"hit_rate": s.HitRate,
			}).Debug("query cache")
			return err
		},
	}
	cmd.Flags().IntVarP(&opts.Neighbors, "neighbors", "n", opts.Neighbors, "number of closest words to print")
	cmd.Flags().IntVar(&opts.Capacity, "cache-size", opts.Capacity, "memoized queries")
	return cmd
}

// runDistance answers one query per input line until EXIT or end of input.
func runDistance(in io.Reader, out io.Writer, c *cache.Cache) error {
	sc := bufio.NewScanner(in)
	for {
		fmt.Fprintf(out, "Enter word or sentence (%s to break): ", exitCommand)
		if !sc.Scan() {
			fmt.Fprintln(out)
			return sc.Err()
		}
		query := strings.TrimSpace(sc.Text())
		if query == "" {
			continue
		}
		if query == exitCommand {
			return nil
		}

		res, err := c.Nearest(query)
		if errors.Is(err, model.ErrZeroNorm) {
			fmt.Fprintln(out, "Out of dictionary word!")
			continue
		}
		if err != nil {
			return err
		}
		printNeighbors(out, res)
	}
}

func analogyCmd(root *rootOptions) *cobra.Command {
	var k int

	cmd := &cobra.Command{
		Use:   "analogy [model] <a> <b> <c>",
		Short: "Print the words nearest to a - b + c",
		Long: `Print the words whose vectors are closest to vec(a) - vec(b) + vec(c),
excluding the three input words.

Examples:
  wordvec analogy model.bin king man woman
  wordvec analogy paris france italy`,
		Args: cobra.RangeArgs(3, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			modelArgs, words := args[:len(args)-3], args[len(args)-3:]
			m, err := loadModel(modelArgs, root.logger(cmd))
			if err != nil {
				return err
			}
			res, err := m.Analogy(words[0], words[1], words[2], k)
			if err != nil {
				return err
			}
			printNeighbors(cmd.OutOrStdout(), res)
			return nil
		},
	}
	cmd.Flags().IntVarP(&k, "neighbors", "n", 10, "number of closest words to print")
	return cmd
}

func infoCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "info [model]",
		Short: "Print model stats",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolveModel(args)
			if err != nil {
				return err
			}
			m, err := loadModel([]string{path}, root.logger(cmd))
			if err != nil {
				return err
			}
			st, err := os.Stat(path)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Path: %s\n", path)
			fmt.Fprintf(out, "Size: %.1f MB\n", float64(st.Size())/(1024*1024))
			fmt.Fprintf(out, "Words: %d\n", m.Len())
			fmt.Fprintf(out, "Dimensions: %d\n", m.Dim())
			if words := m.Words(); len(words) > 0 {
				fmt.Fprintf(out, "First words: %s\n", strings.Join(words[:min(len(words), 10)], " "))
			}
			return nil
		},
	}
}

func pathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the default model file path",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			path, err := DefaultModelPath()
			if err != nil {
				// Print the expected path even if the file doesn't exist.
				path = defaultOutputPath()
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
		},
	}
}

func loadModel(args []string, log *logrus.Logger) (*textvec.Model, error) {
	path, err := resolveModel(args)
	if err != nil {
		return nil, err
	}
	m, err := textvec.Load(path)
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"model": filepath.Base(path),
		"words": m.Len(),
		"dims":  m.Dim(),
	}).Debug("model loaded")
	return m, nil
}

func printNeighbors(out io.Writer, res []textvec.Neighbor) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Word\tCosine distance")
	fmt.Fprintln(tw, "----\t---------------")
	for _, n := range res {
		fmt.Fprintf(tw, "%s\t%f\n", n.Key, n.Distance)
	}
	tw.Flush()
}
