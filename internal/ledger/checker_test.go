package ledger

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edefter/pkg/models"
)

const testTaxNo = "1234567890"

var fixedNow = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func writeFile(t *testing.T, dir, name string, modTime time.Time) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("<defter/>"), 0o644))
	require.NoError(t, os.Chtimes(path, modTime, modTime))
	return path
}

func writeCompleteSet(t *testing.T, dir, taxNo, period string) {
	t.Helper()
	base := time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)
	writeFile(t, dir, "GIB-"+taxNo+"-"+period+"-KB-000001.xml", base)
	writeFile(t, dir, "GIB-"+taxNo+"-"+period+"-KB-000001.zip", base.Add(time.Minute))
	writeFile(t, dir, "GIB-"+taxNo+"-"+period+"-YB-000001.xml", base.Add(2*time.Minute))
	writeFile(t, dir, "GIB-"+taxNo+"-"+period+"-YB-000001.zip", base.Add(3*time.Minute))
}

func newTestChecker() *Checker {
	return NewChecker(func() time.Time { return fixedNow })
}

func TestCheckPeriodMissingFolder(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "yok")

	result, err := newTestChecker().CheckPeriod(dir, testTaxNo, models.MustParsePeriod("202506"))
	require.NoError(t, err)

	assert.False(t, result.FolderExists)
	assert.False(t, result.IsComplete)
	require.Len(t, result.Files, 4)
	for _, f := range result.Files {
		assert.False(t, f.Exists)
	}
	assert.Equal(t, "GIB-1234567890-202506-KB-000000.xml", result.Files[0].FileName)
	assert.Equal(t, []string{"Kebir XML", "Kebir ZIP", "Yevmiye XML", "Yevmiye ZIP"}, result.MissingFiles())
}

func TestCheckPeriodComplete(t *testing.T) {
	dir := t.TempDir()
	writeCompleteSet(t, dir, testTaxNo, "202506")
	writeFile(t, dir, "notlar.txt", time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC))

	result, err := newTestChecker().CheckPeriod(dir, testTaxNo, models.MustParsePeriod("202506"))
	require.NoError(t, err)

	assert.True(t, result.FolderExists)
	assert.True(t, result.IsComplete)
	assert.Empty(t, result.MissingFiles())
	assert.Equal(t, "Haziran 2025", result.PeriodDisplay)

	types := make([]FileType, 0, 4)
	for _, f := range result.Files {
		assert.True(t, f.Exists)
		assert.Equal(t, fixedNow, f.FoundAt)
		assert.Equal(t, int64(len("<defter/>")), f.FileSize)
		types = append(types, f.FileType)
	}
	assert.Equal(t, []FileType{KebirXML, KebirZIP, YevmiyeXML, YevmiyeZIP}, types)

	// The unrelated newer file does not count towards last-modified.
	assert.Equal(t, time.Date(2025, 7, 1, 10, 3, 0, 0, time.UTC), result.LastModified.UTC())
}

func TestCheckPeriodIsCaseInsensitive(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	writeFile(t, dir, "gib-1234567890-202506-kb-000001.XML", now)
	writeFile(t, dir, "GIB-1234567890-202506-KB-000001.Zip", now)
	writeFile(t, dir, "Gib-1234567890-202506-yb-1.xml", now)
	writeFile(t, dir, "GIB-1234567890-202506-YB-000001.ZIP", now)

	result, err := newTestChecker().CheckPeriod(dir, testTaxNo, models.MustParsePeriod("202506"))
	require.NoError(t, err)
	assert.True(t, result.IsComplete)
}

func TestCheckPeriodPartialMatchesNeverCount(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	writeFile(t, dir, "GIB-1234567890-202506-KB-000001.xml", now)
	writeFile(t, dir, "GIB-1234567890-202506-KB-000001.zip", now)
	writeFile(t, dir, "GIB-1234567890-202506-YB-000001.xml", now)
	// Wrong period, wrong tax number, missing digits, extra suffix.
	writeFile(t, dir, "GIB-1234567890-202505-YB-000001.zip", now)
	writeFile(t, dir, "GIB-9999999999-202506-YB-000001.zip", now)
	writeFile(t, dir, "GIB-1234567890-202506-YB-.zip", now)
	writeFile(t, dir, "GIB-1234567890-202506-YB-000001.zip.part", now)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "GIB-1234567890-202506-YB-000002.zip"), 0o755))

	result, err := newTestChecker().CheckPeriod(dir, testTaxNo, models.MustParsePeriod("202506"))
	require.NoError(t, err)

	assert.False(t, result.IsComplete)
	assert.True(t, result.Has(YevmiyeXML))
	assert.False(t, result.Has(YevmiyeZIP))
	assert.Equal(t, []string{"Yevmiye ZIP"}, result.MissingFiles())
}

func TestCheckPeriodPrefersNewestDuplicate(t *testing.T) {
	dir := t.TempDir()
	old := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	writeFile(t, dir, "GIB-1234567890-202506-KB-000001.xml", old)
	writeFile(t, dir, "GIB-1234567890-202506-KB-000002.xml", old.Add(time.Hour))
	writeFile(t, dir, "GIB-1234567890-202506-KB-000003.xml", old)
	writeFile(t, dir, "GIB-1234567890-202506-KB-000001.zip", old)
	writeFile(t, dir, "GIB-1234567890-202506-KB-000000.zip", old)

	result, err := newTestChecker().CheckPeriod(dir, testTaxNo, models.MustParsePeriod("202506"))
	require.NoError(t, err)

	assert.Equal(t, "GIB-1234567890-202506-KB-000002.xml", result.Files[0].FileName)
	assert.Equal(t, "GIB-1234567890-202506-KB-000000.zip", result.Files[1].FileName)
}

func TestCheckPeriodOnFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "06", time.Now())

	_, err := newTestChecker().CheckPeriod(path, testTaxNo, models.MustParsePeriod("202506"))
	assert.ErrorIs(t, err, ErrNotDirectory)
}

func TestCheckPeriodPanicsOnInvalidPeriod(t *testing.T) {
	assert.Panics(t, func() {
		_, _ = newTestChecker().CheckPeriod(t.TempDir(), testTaxNo, models.Period{Year: 2025, Month: 13})
	})
}

func TestAttachCustomer(t *testing.T) {
	result, err := newTestChecker().CheckPeriod(t.TempDir(), testTaxNo, models.MustParsePeriod("202506"))
	require.NoError(t, err)

	result.AttachCustomer(models.Customer{CompanyName: "ABC Ticaret", Email: "abc@example.com", Category: models.CategoryKurumlar})
	assert.Equal(t, "ABC Ticaret", result.CompanyName)
	assert.Equal(t, "abc@example.com", result.CustomerEmail)
	assert.Equal(t, models.CategoryKurumlar, result.Category)
}
