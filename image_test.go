package flatfat_test

import (
	"testing"

	"github.com/dargueta/flatfat"
	"github.com/dargueta/flatfat/errors"
	"github.com/dargueta/flatfat/layout"
	flatfattest "github.com/dargueta/flatfat/testing"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateImage__PersistsAcrossSessions(t *testing.T) {
	fs := afero.NewMemMapFs()

	session, err := flatfat.CreateImage(fs, "/disk.img", geometry)
	require.NoError(t, err)
	_, err = session.CreateFile("config.sys", 0, 1000)
	require.NoError(t, err)
	_, err = session.CreateFile("autoexec.bat", 0, 50)
	require.NoError(t, err)
	require.NoError(t, session.Close())

	info, err := fs.Stat("/disk.img")
	require.NoError(t, err)
	assert.Equal(t, geometry.ImageSize(), info.Size())

	reopened, err := flatfat.OpenImage(fs, "/disk.img")
	require.NoError(t, err)
	defer reopened.Close()

	assert.Equal(t, []string{"CONFIG.SYS", "AUTOEXEC.BAT"}, listNames(t, reopened))
	entry, err := reopened.Lookup("Config.Sys")
	require.NoError(t, err)
	assert.EqualValues(t, 1000, entry.FileSize)

	report, err := reopened.Check()
	require.NoError(t, err)
	assert.True(t, report.OK())
}

func TestCreateImage__PredefinedGeometry(t *testing.T) {
	fs := afero.NewMemMapFs()
	floppy, err := layout.GetPredefinedGeometry("floppy-1440")
	require.NoError(t, err)

	session, err := flatfat.CreateImage(fs, "floppy.img", floppy)
	require.NoError(t, err)
	require.NoError(t, session.Close())

	read, err := flatfat.ReadGeometry(fs, "floppy.img")
	require.NoError(t, err)
	assert.Equal(t, floppy.TotalClusters, read.TotalClusters)
	assert.Equal(t, floppy.FirstDataCluster, read.FirstDataCluster)
}

func TestCreateImage__ExistingImageTooSmall(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "small.img", make([]byte, 1024), 0o644))

	_, err := flatfat.CreateImage(fs, "small.img", geometry)
	flatfattest.RequireErrno(t, err, errors.EMEDIUMTYPE)
}

func TestOpenImage__Missing(t *testing.T) {
	_, err := flatfat.OpenImage(afero.NewMemMapFs(), "nope.img")
	flatfattest.RequireErrno(t, err, errors.ENOENT)
}

func TestOpenImage__NotAnImage(t *testing.T) {
	fs := afero.NewMemMapFs()
	image := flatfattest.CreateRandomImage(geometry.ClusterSize, geometry.TotalClusters, t)
	require.NoError(t, afero.WriteFile(fs, "random.img", image, 0o644))

	_, err := flatfat.OpenImage(fs, "random.img")
	flatfattest.RequireErrno(t, err, errors.EMEDIUMTYPE)
}
