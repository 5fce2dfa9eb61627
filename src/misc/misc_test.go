package misc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

var seqExts = []string{"fasta", "fa", "fna", "fastq", "fq"}

func TestCheckExt(t *testing.T) {
	require.NoError(t, CheckExt("reads.fq", seqExts))
	require.NoError(t, CheckExt("dir.v2/reads.FASTQ.gz", seqExts))
	require.NoError(t, CheckExt("genome.fa.zst", seqExts))
	require.Error(t, CheckExt("reads.bam", seqExts))
	require.Error(t, CheckExt("reads.gz", seqExts))
}

func TestCheckFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.fa")
	require.Error(t, CheckFile(path))
	require.NoError(t, os.WriteFile(path, []byte(">x\nACGT\n"), 0644))
	require.NoError(t, CheckFile(path))
}

func TestStartLogging(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "run.log")
	fh := StartLogging(path)
	require.NoError(t, fh.Close())
	require.NoError(t, CheckFile(path))
}

func TestCheckRequiredFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("input", "", "")
	require.NoError(t, cmd.MarkFlagRequired("input"))
	require.Error(t, CheckRequiredFlags(cmd.Flags()))
	require.NoError(t, cmd.Flags().Set("input", "x"))
	require.NoError(t, CheckRequiredFlags(cmd.Flags()))
}
