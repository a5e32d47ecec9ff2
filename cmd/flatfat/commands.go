package main

import (
	"fmt"
	"math"
	"strings"
	"text/tabwriter"

	"github.com/dargueta/flatfat"
	"github.com/dargueta/flatfat/directory"
	"github.com/dargueta/flatfat/layout"
	"github.com/gocarina/gocsv"
	"github.com/urfave/cli/v2"
)

func formatImage(context *cli.Context) error {
	path, err := imagePath(context)
	if err != nil {
		return err
	}

	var geometry layout.Geometry
	if context.IsSet("geometry-file") {
		if context.IsSet("geometry") {
			return cli.Exit("--geometry and --geometry-file can't be used together", 2)
		}
		geometry, err = layout.LoadGeometryFile(filesystem(context), context.String("geometry-file"))
	} else {
		geometry, err = layout.GetPredefinedGeometry(context.String("geometry"))
	}
	if err != nil {
		return err
	}

	session, err := flatfat.CreateImage(
		filesystem(context), path, geometry, flatfat.WithLogger(newLogger(context)))
	if err != nil {
		return err
	}
	if err = session.Close(); err != nil {
		return err
	}

	fmt.Fprintf(context.App.Writer, "formatted %s: %s\n", path, geometry)
	return nil
}

func listGeometries(context *cli.Context) error {
	geometries := layout.PredefinedGeometries()
	if context.Bool("csv") {
		return gocsv.Marshal(geometries, context.App.Writer)
	}

	writer := tabwriter.NewWriter(context.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "SLUG\tCLUSTER SIZE\tCLUSTERS\tIMAGE SIZE\tDESCRIPTION")
	for _, geometry := range geometries {
		fmt.Fprintf(
			writer,
			"%s\t%d\t%d\t%d\t%s\n",
			geometry.Slug,
			geometry.ClusterSize,
			geometry.TotalClusters,
			geometry.ImageSize(),
			geometry.Name)
	}
	return writer.Flush()
}

// fileRow is one line of `ls` output.
type fileRow struct {
	Name         string `csv:"name"`
	Attributes   string `csv:"attributes"`
	FirstCluster int32  `csv:"first_cluster"`
	Size         int32  `csv:"size"`
}

var attributeLetters = []struct {
	flag   uint8
	letter byte
}{
	{directory.AttrReadOnly, 'R'},
	{directory.AttrHidden, 'H'},
	{directory.AttrSystem, 'S'},
	{directory.AttrVolumeLabel, 'V'},
	{directory.AttrDirectory, 'D'},
	{directory.AttrArchived, 'A'},
	{directory.AttrDevice, 'E'},
	{directory.AttrReserved, 'X'},
}

// formatAttributes renders an attribute byte as a fixed-width string of flag
// letters, with '-' for each flag that's clear.
func formatAttributes(attributes uint8) string {
	var builder strings.Builder
	for _, attr := range attributeLetters {
		if attributes&attr.flag != 0 {
			builder.WriteByte(attr.letter)
		} else {
			builder.WriteByte('-')
		}
	}
	return builder.String()
}

func listFiles(context *cli.Context) error {
	return withSession(context, func(session *flatfat.Session) error {
		entries, err := session.List()
		if err != nil {
			return err
		}

		rows := make([]fileRow, len(entries))
		for i, entry := range entries {
			rows[i] = fileRow{
				Name:         entry.Name,
				Attributes:   formatAttributes(entry.Attributes),
				FirstCluster: int32(entry.FirstCluster),
				Size:         entry.FileSize,
			}
		}

		if context.Bool("csv") {
			return gocsv.Marshal(rows, context.App.Writer)
		}

		writer := tabwriter.NewWriter(context.App.Writer, 0, 4, 2, ' ', 0)
		for _, row := range rows {
			fmt.Fprintf(writer, "%s\t%s\t%d\t%d\n", row.Name, row.Attributes, row.FirstCluster, row.Size)
		}
		return writer.Flush()
	})
}

func addFile(context *cli.Context) error {
	name, err := singleArgument(context)
	if err != nil {
		return err
	}

	size := context.Int64("size")
	if size < 0 || size > math.MaxInt32 {
		return cli.Exit(fmt.Sprintf("size must be in [0, %d], got %d", math.MaxInt32, size), 2)
	}
	attributes := context.Uint("attr")
	if attributes > math.MaxUint8 {
		return cli.Exit(fmt.Sprintf("attributes must be in [0, 255], got %d", attributes), 2)
	}

	return withSession(context, func(session *flatfat.Session) error {
		entry, err := session.CreateFile(name, uint8(attributes), int32(size))
		if err != nil {
			return err
		}
		fmt.Fprintf(
			context.App.Writer,
			"created %s at cluster %d\n",
			entry.Name,
			entry.FirstCluster)
		return nil
	})
}

func removeFile(context *cli.Context) error {
	name, err := singleArgument(context)
	if err != nil {
		return err
	}
	return withSession(context, func(session *flatfat.Session) error {
		return session.Remove(name)
	})
}

func showChain(context *cli.Context) error {
	name, err := singleArgument(context)
	if err != nil {
		return err
	}

	return withSession(context, func(session *flatfat.Session) error {
		chain, err := session.Chain(name)
		if err != nil {
			return err
		}

		parts := make([]string, len(chain))
		for i, cluster := range chain {
			parts[i] = fmt.Sprint(cluster)
		}
		fmt.Fprintln(context.App.Writer, strings.Join(parts, " "))
		return nil
	})
}

func showStats(context *cli.Context) error {
	return withSession(context, func(session *flatfat.Session) error {
		stats, err := session.Stat()
		if err != nil {
			return err
		}

		writer := tabwriter.NewWriter(context.App.Writer, 0, 4, 2, ' ', 0)
		fmt.Fprintf(writer, "cluster size:\t%d\n", stats.ClusterSize)
		fmt.Fprintf(writer, "total clusters:\t%d\n", stats.TotalClusters)
		fmt.Fprintf(writer, "data clusters:\t%d\n", stats.DataClusters)
		fmt.Fprintf(writer, "free clusters:\t%d\n", stats.FreeClusters)
		fmt.Fprintf(writer, "files:\t%d/%d\n", stats.Files, stats.DirectoryCapacity)
		return writer.Flush()
	})
}

func checkImage(context *cli.Context) error {
	return withSession(context, func(session *flatfat.Session) error {
		report, err := session.Check()
		if err != nil {
			return err
		}

		for _, problem := range report.Problems {
			fmt.Fprintln(context.App.Writer, problem.String())
		}
		if !report.OK() {
			return cli.Exit(fmt.Sprintf("found %d problem(s)", len(report.Problems)), 1)
		}

		fmt.Fprintf(
			context.App.Writer,
			"%d files checked, %d clusters in use, no problems\n",
			report.FilesChecked,
			report.ClustersInUse)
		return nil
	})
}
