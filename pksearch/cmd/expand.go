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
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/shenwei356/pksearch/pksearch/index"
	"github.com/spf13/cobra"
)

var expandCmd = &cobra.Command{
	Use:   "expand",
	Short: "Expand ambiguous bases N in k-mers into A, C, G and T",
	Long: `Expand ambiguous bases N in k-mers into A, C, G and T

Input:
  K-mers (ACGTN, case ignored) from positional arguments,
  or one k-mer per line from stdin if no arguments given.

Output:
  Tab-delimited format with 2 columns, expanded k-mers are in lexicographic order.
    1. kmer,      The input k-mer.
    2. expanded,  An expanded k-mer.

Attention:
  A k-mer with m Ns is expanded into 4^m k-mers.

`,
	Run: func(cmd *cobra.Command, args []string) {
		outFile := getFlagString(cmd, "out-file")
		maxN := getFlagNonNegativeInt(cmd, "max-n")

		outfh, gw, w, err := outStream(outFile, strings.HasSuffix(outFile, ".gz"), -1)
		checkError(err)
		defer func() {
			outfh.Flush()
			if gw != nil {
				gw.Close()
			}
			w.Close()
		}()

		if len(args) == 0 {
			checkError(expandKmers(bufio.NewScanner(os.Stdin), outfh, maxN))
			return
		}
		checkError(expandKmers(bufio.NewScanner(strings.NewReader(strings.Join(args, "\n"))), outfh, maxN))
	},
}

// expandKmers expands every non-empty line of the scanner.
// Lines with more than maxN Ns are rejected, 0 for no limit.
func expandKmers(scanner *bufio.Scanner, w io.Writer, maxN int) error {
	var line string
	var n int
	for scanner.Scan() {
		line = strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if err := index.Validate([]byte(line), 1); err != nil {
			return errors.Wrapf(err, "invalid k-mer: %s", line)
		}
		n = index.CountN([]byte(line))
		if maxN > 0 && n > maxN {
			return fmt.Errorf("too many Ns (%d > %d) in k-mer: %s", n, maxN, line)
		}

		for _, kmer := range index.Expand([]byte(line)) {
			if _, err := fmt.Fprintf(w, "%s\t%s\n", line, kmer); err != nil {
				return err
			}
		}
	}
	return scanner.Err()
}

func init() {
	utilsCmd.AddCommand(expandCmd)

	expandCmd.Flags().StringP("out-file", "o", "-",
		formatFlagUsage(`Out file, supports a ".gz" suffix ("-" for stdout).`))

	expandCmd.Flags().IntP("max-n", "n", 12,
		formatFlagUsage(`Maximum number of Ns in a k-mer, 0 for no limit.`))

	expandCmd.SetUsageTemplate(usageTemplate("[kmer ...]"))
}
