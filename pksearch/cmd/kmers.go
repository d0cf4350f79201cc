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
	"strconv"
	"strings"
	"time"

	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/pksearch/pksearch/index"
	"github.com/spf13/cobra"
)

var kmersCmd = &cobra.Command{
	Use:   "kmers",
	Short: "Index target sequences and list the k-mers with their positions",
	Long: `Index target sequences and list the k-mers with their positions

Output format:
  Tab-delimited format with 2 columns, k-mers are sorted in lexicographic order.
    1. kmer,       K-mer. K-mers from ambiguous bases N are expanded.
    2. positions,  Comma-separated positions, in the format of "target:position".
                   Positions are 1-based, sorted by target ID and then position.

`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)
		seq.ValidateSeq = false

		outFile := getFlagString(cmd, "out-file")
		defer openLog(opt, outFile)()

		outputLog := opt.Verbose || opt.Log2File

		targetFiles, topt := getTargetOptions(cmd, opt)

		if outputLog {
			log.Infof("indexing %d target file(s) with k=%d ...", len(targetFiles), topt.K)
		}
		timeStart := time.Now()
		idx, err := BuildTargetIndex(targetFiles, topt)
		checkError(err)
		if outputLog {
			log.Infof("  %d target sequences with %d distinct k-mers indexed in %s",
				idx.NumTargets(), idx.NumKmers(), time.Since(timeStart))
		}

		outfh, gw, w, err := outStream(outFile, strings.HasSuffix(outFile, ".gz"), opt.CompressionLevel)
		checkError(err)
		defer func() {
			outfh.Flush()
			if gw != nil {
				gw.Close()
			}
			w.Close()
		}()

		outfh.WriteString("kmer\tpositions\n")
		buf := make([]byte, 0, 1024)
		idx.Walk(func(kmer []byte, positions []index.Position) bool {
			buf = buf[:0]
			buf = append(buf, kmer...)
			buf = append(buf, '\t')
			for i, p := range positions {
				if i > 0 {
					buf = append(buf, ',')
				}
				buf = append(buf, idx.Target(p.Target).ID...)
				buf = append(buf, ':')
				buf = strconv.AppendUint(buf, uint64(p.Offset)+1, 10)
			}
			buf = append(buf, '\n')
			_, err = outfh.Write(buf)
			return err == nil
		})
		checkError(err)

		if outputLog && outFile != "-" {
			log.Infof("k-mers saved to: %s", outFile)
		}
	},
}

func init() {
	RootCmd.AddCommand(kmersCmd)

	addTargetFlags(kmersCmd)

	kmersCmd.Flags().StringP("out-file", "o", "-",
		formatFlagUsage(`Out file, supports a ".gz" suffix ("-" for stdout).`))

	kmersCmd.SetUsageTemplate(usageTemplate("-k <k> -t <targets.fasta> [-o kmers.tsv.gz]"))
}
