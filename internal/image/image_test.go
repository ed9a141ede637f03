package image_test

import (
	"context"
	"os"
	"path/filepath"

	"github.com/airbusgeo/geomosaic/internal/image"
	"github.com/airbusgeo/geomosaic/internal/mosaic"
	"github.com/airbusgeo/godal"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("GdalTileIO", func() {
	var (
		ctx    = context.Background()
		dir    string
		tileIO *image.GdalTileIO
		grid   *mosaic.TileGrid
		tile   mosaic.Tile
		path   string
	)

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "tileio")
		Expect(err).NotTo(HaveOccurred())
		tileIO, err = image.NewGdalTileIO(10)
		Expect(err).NotTo(HaveOccurred())
		grid = testGrid()
		tile, err = grid.Tile(1, 0)
		Expect(err).NotTo(HaveOccurred())
		path = filepath.Join(dir, tile.ID.FileName())
		bands := []*mosaic.BandArray{band(tile.Width, tile.Height, 12), band(tile.Width, tile.Height, 322)}
		Expect(tileIO.WriteRaster(ctx, path, metadata(tile, 2), bands)).To(Succeed())
	})

	AfterEach(func() {
		os.RemoveAll(dir)
	})

	It("should read the metadata", func() {
		meta, err := tileIO.ReadMetadata(ctx, path)
		Expect(err).NotTo(HaveOccurred())
		Expect(meta.Width).To(Equal(50))
		Expect(meta.Height).To(Equal(50))
		Expect(meta.BandCount).To(Equal(2))
		Expect(meta.DType).To(Equal(mosaic.DTypeINT16))
		Expect(meta.GeoTransform).To(Equal([6]float64{301500, 30, 0, 5001500, 0, -30}))
		Expect(meta.HasNoData).To(BeTrue())
		Expect(meta.NoData).To(Equal(nd))
	})

	It("should read the bands in order", func() {
		b, err := tileIO.ReadBand(ctx, path, 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(b.Width).To(Equal(50))
		Expect(b.Valid(0)).To(BeFalse())
		Expect(b.Pixels[1]).To(Equal(322.))
		b, err = tileIO.ReadBand(ctx, path, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(b.Pixels[len(b.Pixels)-1]).To(Equal(12.))
	})

	It("should invalidate the cached metadata on write", func() {
		_, err := tileIO.ReadMetadata(ctx, path)
		Expect(err).NotTo(HaveOccurred())
		Expect(tileIO.WriteRaster(ctx, path, metadata(tile, 1), []*mosaic.BandArray{band(tile.Width, tile.Height, 1)})).To(Succeed())
		meta, err := tileIO.ReadMetadata(ctx, path)
		Expect(err).NotTo(HaveOccurred())
		Expect(meta.BandCount).To(Equal(1))
	})

	It("should fail with an IOFailure", func() {
		_, err := tileIO.ReadBand(ctx, path, 3)
		Expect(mosaic.IsError(err, mosaic.ErrorKindIOFailure)).To(BeTrue())
		_, err = tileIO.ReadBand(ctx, filepath.Join(dir, "missing.tif"), 1)
		Expect(mosaic.IsError(err, mosaic.ErrorKindIOFailure)).To(BeTrue())
		_, err = tileIO.ReadMetadata(ctx, filepath.Join(dir, "missing.tif"))
		Expect(mosaic.IsError(err, mosaic.ErrorKindIOFailure)).To(BeTrue())
		err = tileIO.WriteRaster(ctx, filepath.Join(dir, "bad.tif"), metadata(tile, 1), []*mosaic.BandArray{band(3, 3, 1)})
		Expect(mosaic.IsError(err, mosaic.ErrorKindIOFailure)).To(BeTrue())
	})

	It("should digest the content", func() {
		d1, err := image.Digest(path)
		Expect(err).NotTo(HaveOccurred())
		d2, err := image.Digest(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(d1).To(Equal(d2))
	})
})

var _ = Describe("WarpTile", func() {
	var (
		ctx = context.Background()
		dir string
	)

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "warp")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(dir)
	})

	It("should resample the source on the tile", func() {
		tileIO, _ := image.NewGdalTileIO(0)
		// source: the whole grid at 30m
		grid := testGrid()
		whole, _ := mosaic.NewTileGrid(grid.Extent, 30, 30, 1000)
		srcTile, _ := whole.Tile(0, 0)
		srcPath := filepath.Join(dir, "source.tif")
		Expect(tileIO.WriteRaster(ctx, srcPath, metadata(srcTile, 1), []*mosaic.BandArray{band(srcTile.Width, srcTile.Height, 7)})).To(Succeed())
		src, err := godal.Open(srcPath)
		Expect(err).NotTo(HaveOccurred())
		defer src.Close()

		fp, err := image.Footprint(src)
		Expect(err).NotTo(HaveOccurred())
		Expect(fp).To(Equal(grid.Extent))

		tile, _ := grid.Tile(1, 0)
		dst := filepath.Join(dir, tile.ID.FileName())
		Expect(image.WarpTile(ctx, src, dst, tile, nd)).To(Succeed())
		Expect(dst + ".tmp").NotTo(BeAnExistingFile())

		meta, err := tileIO.ReadMetadata(ctx, dst)
		Expect(err).NotTo(HaveOccurred())
		Expect(meta.Width).To(Equal(tile.Width))
		Expect(meta.Height).To(Equal(tile.Height))
		Expect(meta.GeoTransform).To(Equal(tile.GeoTransform))
		b, err := tileIO.ReadBand(ctx, dst, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(b.Pixels[0]).To(Equal(7.))
	})
})

var _ = Describe("Merger", func() {
	var (
		ctx    = context.Background()
		dir    string
		files  []string
		grid   *mosaic.TileGrid
		format mosaic.Format
		dst    string
		err    error
	)

	BeforeEach(func() {
		dir, err = os.MkdirTemp("", "merge")
		Expect(err).NotTo(HaveOccurred())
		tileIO, _ := image.NewGdalTileIO(0)
		grid = testGrid()
		files = writeTiles(tileIO, dir, grid)
	})

	AfterEach(func() {
		os.RemoveAll(dir)
	})

	JustBeforeEach(func() {
		dst = filepath.Join(dir, "mosaic"+format.Extension())
		var merger image.Merger
		merger, err = image.NewMerger(format)
		Expect(err).NotTo(HaveOccurred())
		err = merger.Merge(ctx, files, dst, nd)
	})

	itShouldMergeTheTiles := func() {
		It("should merge the tiles", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(dst + ".tmp").NotTo(BeAnExistingFile())
			ds, err := godal.Open(dst)
			Expect(err).NotTo(HaveOccurred())
			defer ds.Close()
			Expect(ds.Structure().SizeX).To(Equal(grid.Width))
			Expect(ds.Structure().SizeY).To(Equal(grid.Height))
			Expect(ds.Structure().NBands).To(Equal(2))
			gt, err := ds.GeoTransform()
			Expect(err).NotTo(HaveOccurred())
			Expect(gt).To(Equal([6]float64(*grid.Transform())))
			nodata, ok := ds.Bands()[0].NoData()
			Expect(ok).To(BeTrue())
			Expect(nodata).To(Equal(nd))
			// second tile of the first row
			v := make([]float64, 1)
			Expect(ds.Bands()[1].Read(60, 10, v, 1, 1)).To(Succeed())
			Expect(v[0]).To(Equal(20.))
		})
	}

	Context("to VRT", func() {
		BeforeEach(func() { format = mosaic.FormatVRT })
		itShouldMergeTheTiles()
	})

	Context("to GeoTIFF", func() {
		BeforeEach(func() { format = mosaic.FormatGTiff })
		itShouldMergeTheTiles()
	})

	Context("to COG", func() {
		BeforeEach(func() { format = mosaic.FormatCOG })
		itShouldMergeTheTiles()
		It("should be a valid COG", func() {
			Expect(image.ValidateCOG(dst)).To(Succeed())
		})
	})

	Context("without tiles", func() {
		BeforeEach(func() {
			format = mosaic.FormatVRT
			files = nil
		})
		It("should fail with an IOFailure", func() {
			Expect(mosaic.IsError(err, mosaic.ErrorKindIOFailure)).To(BeTrue())
			Expect(dst).NotTo(BeAnExistingFile())
		})
	})

	It("should reject an unknown format", func() {
		_, err := image.NewMerger("png")
		Expect(mosaic.IsError(err, mosaic.ErrorKindInvalidInput)).To(BeTrue())
	})
})

var _ = Describe("TileIndex", func() {
	It("should describe each tile", func() {
		grid := testGrid()
		tiles := grid.Tiles()
		files := make([]string, len(tiles))
		for i, t := range tiles {
			files[i] = t.ID.FileName()
		}
		fc, err := image.TileIndex(tiles, files)
		Expect(err).NotTo(HaveOccurred())
		Expect(fc.Features).To(HaveLen(grid.Count()))
		Expect(fc.Features[1].ID).To(Equal("1_0"))
		Expect(fc.Features[1].Properties["file"]).To(Equal("1_0.tif"))
		Expect(fc.Features[1].Geometry.Bounds().Min(0)).To(Equal(301500.))

		_, err = image.TileIndex(tiles, files[1:])
		Expect(err).To(HaveOccurred())
	})
})
