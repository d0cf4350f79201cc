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
	"io"
	"os"
	"regexp"
	"time"

	"github.com/pkg/errors"
	"github.com/shenwei356/bio/seqio/fastx"
	"github.com/shenwei356/pksearch/pksearch/index"
	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

var reIgnoreCaseStr = "(?i)"
var reIgnoreCase = regexp.MustCompile(`\(\?i\)`)

// TargetIndexOptions contains the options for indexing target sequences.
type TargetIndexOptions struct {
	Verbose bool // show a progress bar and warnings

	K int // k-mer size

	ReSeqExclude []*regexp.Regexp // sequences with matched headers are ignored
}

// CheckTargetIndexOptions checks the options.
func CheckTargetIndexOptions(opt *TargetIndexOptions) error {
	if opt.K < 1 {
		return fmt.Errorf("invalid k-mer size: %d, should be >= 1", opt.K)
	}
	return nil
}

// BuildTargetIndex reads target sequences from FASTA/Q files and builds
// a k-mer index. Sequences shorter than k are skipped, an illegal
// character in any target is fatal.
func BuildTargetIndex(files []string, opt *TargetIndexOptions) (*index.Index, error) {
	if err := CheckTargetIndexOptions(opt); err != nil {
		return nil, err
	}

	b, err := index.NewBuilder(opt.K)
	if err != nil {
		return nil, err
	}

	// process bar
	var pbs *mpb.Progress
	var bar *mpb.Bar
	if opt.Verbose {
		pbs = mpb.New(mpb.WithWidth(40), mpb.WithOutput(os.Stderr))
		bar = pbs.AddBar(int64(len(files)),
			mpb.PrependDecorators(
				decor.Name("processed files: ", decor.WC{W: len("processed files: "), C: decor.DindentRight}),
				decor.Name("", decor.WCSyncSpaceR),
				decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
			),
			mpb.AppendDecorators(
				decor.Name("ETA: ", decor.WC{W: len("ETA: ")}),
				decor.EwmaETA(decor.ET_STYLE_GO, 10),
				decor.OnComplete(decor.Name(""), ". done"),
			),
		)
	}
	abort := func() {
		if opt.Verbose {
			bar.Abort(true)
			pbs.Wait()
		}
	}

	var record *fastx.Record
	var s *index.Sequence
	var ok, ignore bool
	var re *regexp.Regexp
	filterNames := len(opt.ReSeqExclude) > 0
	skipped := make([]string, 0, 8)
	for _, file := range files {
		startTime := time.Now()

		fastxReader, err := fastx.NewReader(nil, file, "")
		if err != nil {
			abort()
			return nil, errors.Wrapf(err, "failed to read target file: %s", file)
		}

		for {
			record, err = fastxReader.Read()
			if err != nil {
				if err == io.EOF {
					break
				}
				fastxReader.Close()
				abort()
				return nil, errors.Wrapf(err, "failed to read target file: %s", file)
			}

			if filterNames {
				ignore = false
				for _, re = range opt.ReSeqExclude {
					if re.Match(record.Name) {
						ignore = true
						break
					}
				}
				if ignore {
					continue
				}
			}

			s = index.NewSequence(string(record.ID), record.Seq.Seq)
			ok, err = b.Add(s)
			if err != nil {
				fastxReader.Close()
				abort()
				return nil, errors.Wrapf(err, "target %s in %s", s.ID, file)
			}
			if !ok {
				skipped = append(skipped, s.ID)
			}
		}
		fastxReader.Close()

		if opt.Verbose {
			bar.EwmaIncrBy(1, time.Since(startTime))
		}
	}

	if opt.Verbose {
		pbs.Wait()

		for _, id := range skipped {
			log.Warningf("target sequence shorter than k (%d) skipped: %s", opt.K, id)
		}
	}

	return b.Build()
}

// compileSeqNameFilters compiles case-insensitive regular expressions.
func compileSeqNameFilters(patterns []string) ([]*regexp.Regexp, error) {
	res := make([]*regexp.Regexp, 0, len(patterns))
	for _, kw := range patterns {
		if !reIgnoreCase.MatchString(kw) {
			kw = reIgnoreCaseStr + kw
		}
		re, err := regexp.Compile(kw)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse regular expression for matching sequence header: %s", kw)
		}
		res = append(res, re)
	}
	return res, nil
}

// addTargetFlags registers flags for specifying target sequences.
func addTargetFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceP("targets", "t", []string{},
		formatFlagUsage(`Target sequence file(s) in (gzipped) FASTA/Q format. Multiple values are supported in the form of comma-separated values or by repeating the flag.`))

	cmd.Flags().StringP("target-dir", "I", "",
		formatFlagUsage(`Directory containing target FASTA/Q files. Directory symlinks are followed.`))

	cmd.Flags().StringP("file-regexp", "r", `\.(f[aq](st[aq])?|fna)(.gz)?$`,
		formatFlagUsage(`Regular expression for matching sequence files in -I/--target-dir, case ignored.`))

	cmd.Flags().StringSliceP("seq-name-filter", "B", []string{},
		formatFlagUsage(`List of regular expressions for filtering out target sequences by header/name, case ignored.`))

	cmd.Flags().IntP("kmer", "k", 0,
		formatFlagUsage(`K-mer size, required.`))
}

// getTargetOptions reads the target flags, lists the target files and
// returns the indexing options.
func getTargetOptions(cmd *cobra.Command, opt *Options) ([]string, *TargetIndexOptions) {
	k := getFlagNonNegativeInt(cmd, "kmer")
	if k == 0 {
		checkError(fmt.Errorf("flag -k/--kmer needed"))
	}

	files := make([]string, 0, 8)
	if targets := getFlagStringSlice(cmd, "targets"); len(targets) > 0 {
		files = append(files, getFileList(targets, true)...)
	}

	inDir := getFlagString(cmd, "target-dir")
	if inDir != "" {
		if isStdin(inDir) {
			checkError(fmt.Errorf("stdin not supported for -I/--target-dir"))
		}

		reFileStr := getFlagString(cmd, "file-regexp")
		if !reIgnoreCase.MatchString(reFileStr) {
			reFileStr = reIgnoreCaseStr + reFileStr
		}
		reFile, err := regexp.Compile(reFileStr)
		checkError(errors.Wrapf(err, "failed to parse regular expression for matching file: %s", reFileStr))

		_files, err := getFileListFromDir(inDir, reFile, opt.NumCPUs)
		checkError(errors.Wrapf(err, "walking dir: %s", inDir))
		if len(_files) == 0 {
			log.Warningf("  no files matching regular expression: %s", reFileStr)
		}
		files = append(files, _files...)
	}

	if len(files) == 0 {
		checkError(fmt.Errorf("no target files given, please use -t/--targets or -I/--target-dir"))
	}

	reSeqNames, err := compileSeqNameFilters(getFlagStringSlice(cmd, "seq-name-filter"))
	checkError(err)

	return files, &TargetIndexOptions{
		Verbose:      opt.Verbose,
		K:            k,
		ReSeqExclude: reSeqNames,
	}
}
