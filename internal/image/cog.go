package image

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/airbusgeo/cogger"
	"github.com/airbusgeo/geomosaic/internal/mosaic"
	"github.com/airbusgeo/geomosaic/internal/utils"
	"github.com/airbusgeo/godal"
	"github.com/google/tiff"
	"github.com/google/uuid"
)

// OverviewsMinSize is the size under which no more overview is built
const OverviewsMinSize = 256

// writeCOG translates the dataset into a Cloud Optimized GeoTIFF written in dst
func writeCOG(ctx context.Context, dataset *godal.Dataset, dst string, nodata float64) error {
	st := dataset.Structure()
	options := append(gtiffOptions(st.SizeX*st.SizeY >= 10000*10000),
		"-co", "BLOCKXSIZE=256",
		"-co", "BLOCKYSIZE=256",
		"-co", "NUM_THREADS=ALL_CPUS",
		"-co", "INTERLEAVE=BAND",
	)

	vsiPath := fmt.Sprintf("/vsimem/cog_without_overviews_%s.tif", uuid.New())
	cogDataset, err := dataset.Translate(vsiPath, options, ErrLogger)
	if err != nil {
		return fmt.Errorf("failed to translate cog: %w", err)
	}
	defer func() {
		cogDataset.Close()
		godal.VSIUnlink(vsiPath)
	}()

	if err := cogDataset.BuildOverviews(godal.Resampling(godal.Nearest), godal.MinSize(OverviewsMinSize)); err != nil {
		return fmt.Errorf("failed to build overviews: %w", err)
	}
	for _, band := range cogDataset.Bands() {
		if err = band.SetNoData(nodata); err != nil {
			return fmt.Errorf("failed to set nodata value: %w", err)
		}
	}
	if err = cogDataset.Close(); err != nil {
		return fmt.Errorf("failed to close tiff file: %w", err)
	}

	if err = rewriteTiff(vsiPath, dst); err != nil {
		return fmt.Errorf("failed to rewrite COG file: %w", err)
	}
	return nil
}

func rewriteTiff(src, dst string) error {
	fd, err := godal.VSIOpen(src)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer fd.Close()
	return writeFile(dst, func(w io.Writer) error {
		return cogger.Rewrite(w, tiff.NewReadAtReadSeeker(fd))
	})
}

// writeFile creates dst and writes it with write. dst is removed on error.
func writeFile(dst string, write func(w io.Writer) error) error {
	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	if err = write(f); err != nil {
		f.Close()
		os.Remove(dst)
		return err
	}
	if err = f.Close(); err != nil {
		os.Remove(dst)
		return err
	}
	return nil
}

/*
ValidateCOG returns an error if the file is not a valid COG (see: https://github.com/rouault/cog_validator/blob/master/validate_cloud_optimized_geotiff.py)
*/
func ValidateCOG(path string) error {
	ds, err := godal.Open(path, godal.Drivers("GTiff"), ErrLogger)
	if err != nil {
		return mosaic.NewIOFailure(err, "open %s", path)
	}
	defer ds.Close()

	band := ds.Bands()[0]
	ovrs := band.Overviews()
	bst := band.Structure()

	if bst.SizeX > 512 || bst.SizeY > 512 {
		if (bst.BlockSizeX == bst.SizeX && bst.BlockSizeX > 1024) || (bst.BlockSizeY == bst.SizeY && bst.BlockSizeY > 1024) {
			err = utils.MergeErrors(true, err, fmt.Errorf("file is greater than 1024xHeight or Widthx1024, but is not tiled"))
		}
	}

	ifdOffsets := []int{ifdOffset(band, &err)}
	for i, ovr := range ovrs {
		ost := ovr.Structure()
		previous := bst
		if i > 0 {
			previous = ovrs[i-1].Structure()
		}
		if ost.SizeX > previous.SizeX || ost.SizeY > previous.SizeY {
			err = utils.MergeErrors(true, err, fmt.Errorf("overview of index %d is larger than its parent", i))
		}
		if (ost.BlockSizeX == bst.SizeX && ost.BlockSizeX > 1024) || (ost.BlockSizeY == bst.SizeY && ost.BlockSizeY > 1024) {
			err = utils.MergeErrors(true, err, fmt.Errorf("overview of index %d is not tiled", i))
		}
		ifdOffsets = append(ifdOffsets, ifdOffset(ovr, &err))
		if n := len(ifdOffsets); ifdOffsets[n-1] < ifdOffsets[n-2] {
			err = utils.MergeErrors(true, err, fmt.Errorf("the IFD of overview of index %d is at byte %d, before the previous one (byte %d)", i, ifdOffsets[n-1], ifdOffsets[n-2]))
		}
	}

	dataOffsets := []int{blockOffset(band)}
	for _, ovr := range ovrs {
		dataOffsets = append(dataOffsets, blockOffset(ovr))
	}
	if last := dataOffsets[len(dataOffsets)-1]; last != 0 && last < ifdOffsets[len(ifdOffsets)-1] {
		err = utils.MergeErrors(true, err, fmt.Errorf("the offset of the first block of the smallest image should be after its IFD"))
	}
	if len(dataOffsets) >= 2 && dataOffsets[0] != 0 && dataOffsets[0] < dataOffsets[1] {
		err = utils.MergeErrors(true, err, fmt.Errorf("the offset of the first block of the main resolution image should be after the one of the overview of index %d", len(ovrs)-1))
	}
	if err != nil {
		return fmt.Errorf("%s is not a valid COG: %w", path, err)
	}
	return nil
}

func ifdOffset(band godal.Band, err *error) int {
	offset, e := strconv.Atoi(band.Metadata("IFD_OFFSET", godal.Domain("TIFF")))
	if e != nil {
		*err = utils.MergeErrors(true, *err, e)
	}
	return offset
}

func blockOffset(band godal.Band) int {
	st := band.Structure()
	for y := 0; y < (st.SizeY+st.BlockSizeY-1)/st.BlockSizeY; y++ {
		for x := 0; x < (st.SizeX+st.BlockSizeX-1)/st.BlockSizeX; x++ {
			if offset := band.Metadata(fmt.Sprintf("BLOCK_OFFSET_%d_%d", x, y), godal.Domain("TIFF")); offset != "" {
				i, err := strconv.Atoi(offset)
				if err != nil {
					return -1
				}
				return i
			}
		}
	}
	return -1
}
