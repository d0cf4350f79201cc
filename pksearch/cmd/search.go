// Copyright © 2023-2024 Wei Shen <shenwei356@gmail.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/pksearch/pksearch/search"
	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search reads against target sequences with perfect k-mer matches",
	Long: `Search reads against target sequences with perfect k-mer matches

Attention:
  1. Target and query sequences should be (gzipped) FASTA or FASTQ records.
     Queries are read from files or stdin.
  2. Only the forward strand is searched, no mismatches or gaps are allowed.
  3. Ambiguous bases N in targets and queries match any of A, C, G and T.
     Queries with a proportion of Ns larger than -n/--max-n-prop are skipped.
  4. Target sequences shorter than k are skipped, while an illegal base
     (not one of ACGTN, case ignored) in any target is a fatal error.
  5. With more than one thread, the order of queries in output might be
     different from the input.

Representative match:
  For each query and target pair, only one match is reported, where
  the query start and target start are the smallest offsets of all
  matched k-mers, computed independently.

Output format:
  1. SAM (default), one @SQ line for every target sequence.
     FLAG is 0 for the first target of a query (sorted by target ID) and
     256 (secondary alignment, with SEQ "*") for the others, rather than
     0 for all records, so that each query has a single primary record.
     MAPQ is 255, CIGAR is "[<clip5>S]<k>M[<clip3>S]".
  2. Tab-delimited format (-F tsv), with 1-based positions.
    1.  query,   Query sequence ID.
    2.  qlen,    Query sequence length.
    3.  targets, Number of matched targets.
    4.  target,  Target sequence ID.
    5.  tlen,    Target sequence length.
    6.  qstart,  Start of the match in the query.
    7.  qend,    End of the match in the query.
    8.  tstart,  Start of the match in the target.
    9.  tend,    End of the match in the target.
    10. clip5,   Query bases before the match.
    11. len,     Match length, i.e., k.
    12. clip3,   Query bases after the match.
    13. cigar,   CIGAR string.

`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)
		seq.ValidateSeq = false

		outFile := getFlagString(cmd, "out-file")
		defer openLog(opt, outFile)()

		outputLog := opt.Verbose || opt.Log2File

		var err error

		// ---------------------------------------------------------------

		maxN := getFlagNonNegativeFloat64(cmd, "max-n-prop")
		if maxN > 1 {
			checkError(fmt.Errorf("the value of flag -n/--max-n-prop (%f) should be in range of [0, 1]", maxN))
		}

		format := strings.ToLower(getFlagString(cmd, "format"))
		if format != "sam" && format != "tsv" {
			checkError(fmt.Errorf("unsupported output format: %s, available: sam, tsv", format))
		}

		summaryFile := getFlagString(cmd, "summary")

		targetFiles, topt := getTargetOptions(cmd, opt)

		// ---------------------------------------------------------------

		if outputLog {
			log.Infof("pksearch v%s", VERSION)
			log.Info()
		}

		// ---------------------------------------------------------------
		// input files

		if outputLog {
			log.Info("checking input files ...")
		}
		files := getFileListFromArgsAndFile(cmd, args, true, "infile-list", true)
		if outputLog {
			if len(files) == 1 {
				if isStdin(files[0]) {
					log.Info("  no files given, reading from stdin")
				} else {
					log.Infof("  %d input file given: %s", len(files), files[0])
				}
			} else {
				log.Infof("  %d input file(s) given", len(files))
			}
		}

		outFileClean := filepath.Clean(outFile)
		for _, file := range files {
			if !isStdin(file) && filepath.Clean(file) == outFileClean {
				checkError(fmt.Errorf("out file should not be one of the input file"))
			}
		}

		// ---------------------------------------------------------------
		// indexing targets

		if outputLog {
			log.Info()
			log.Infof("indexing %d target file(s) with k=%d ...", len(targetFiles), topt.K)
		}

		timeStart := time.Now()
		idx, err := BuildTargetIndex(targetFiles, topt)
		checkError(err)

		if outputLog {
			log.Infof("  %d target sequences with %d distinct k-mers indexed in %s",
				idx.NumTargets(), idx.NumKmers(), time.Since(timeStart))
			if n := idx.Skipped(); n > 0 {
				log.Warningf("  %d target sequences shorter than k skipped", n)
			}
			if n := idx.Duplicated(); n > 0 {
				log.Warningf("  %d target sequences with duplicated IDs merged", n)
			}
			log.Info()
		}

		// ---------------------------------------------------------------
		// searching

		searcher, err := search.NewSearcher(idx, &search.Options{
			MaxNProportion: maxN,
			Threads:        opt.NumCPUs,
		})
		checkError(err)

		outfh, gw, w, err := outStream(outFile, strings.HasSuffix(outFile, ".gz"), opt.CompressionLevel)
		checkError(err)
		defer func() {
			outfh.Flush()
			if gw != nil {
				gw.Close()
			}
			w.Close()
		}()

		var sink search.Sink
		if format == "tsv" {
			sink, err = search.NewTSVWriter(outfh)
		} else {
			sink, err = search.NewSAMWriter(outfh, idx, "pksearch", VERSION)
		}
		checkError(err)

		if outputLog {
			log.Infof("searching with %d threads...", opt.NumCPUs)
		}

		src := search.NewFastxSource(files)
		psink := &progressSink{
			Sink:      sink,
			verbose:   opt.Verbose,
			outputLog: outputLog,
			start:     time.Now(),
		}
		summary, err := searcher.Run(src, psink)
		src.Close()
		checkError(err)

		if outputLog {
			if opt.Verbose {
				fmt.Fprintf(os.Stderr, "\n")
			}
			speed := float64(psink.total) / time.Since(psink.start).Minutes()
			log.Infof("processed queries: %d, speed: %.3f queries per minute", psink.total, speed)
			summary.Log(log, idx.K(), maxN)
			if outFile != "-" {
				log.Infof("search results saved to: %s", outFile)
			}
		}

		if summaryFile != "" {
			checkError(search.WriteSummaryInfo(summaryFile, summary.Info(idx.K(), maxN)))
			if outputLog {
				log.Infof("summary saved to: %s", summaryFile)
			}
		}
	},
}

// progressSink reports the progress of searching.
// Write is only called by one goroutine.
type progressSink struct {
	search.Sink

	verbose   bool
	outputLog bool
	start     time.Time
	total     uint64
}

func (s *progressSink) Write(r *search.Result) error {
	s.total++
	if s.verbose && ((s.total < 128 && s.total&7 == 0) || s.total&4095 == 0) {
		speed := float64(s.total) / time.Since(s.start).Minutes()
		fmt.Fprintf(os.Stderr, "processed queries: %d, speed: %.3f queries per minute\r", s.total, speed)
	} else if !s.verbose && s.outputLog && s.total%1000000 == 0 {
		log.Infof("processed queries: %d", s.total)
	}
	return s.Sink.Write(r)
}

func init() {
	RootCmd.AddCommand(searchCmd)

	// -----------------------------  input  -----------------------------

	addTargetFlags(searchCmd)

	searchCmd.Flags().StringP("infile-list", "X", "",
		formatFlagUsage(`File of query file paths, one file per line. If given, they are appended to files from CLI arguments.`))

	// -----------------------------  searching  -----------------------------

	searchCmd.Flags().Float64P("max-n-prop", "n", search.DefaultOptions.MaxNProportion,
		formatFlagUsage(`Maximum proportion of Ns in a query. Queries with more Ns are skipped.`))

	// -----------------------------  output  -----------------------------

	searchCmd.Flags().StringP("out-file", "o", "-",
		formatFlagUsage(`Out file, supports a ".gz" suffix ("-" for stdout).`))

	searchCmd.Flags().StringP("format", "F", "sam",
		formatFlagUsage(`Output format, available values: sam, tsv.`))

	searchCmd.Flags().StringP("summary", "", "",
		formatFlagUsage(`Save the summary of searching to a TOML file.`))

	searchCmd.SetUsageTemplate(usageTemplate("-k <k> -t <targets.fasta> [query.fastq.gz ...] [-o out.sam]"))
}
