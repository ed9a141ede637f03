package mosaic_test

import (
	"github.com/airbusgeo/geomosaic/internal/mosaic"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("TileGrid", func() {
	var (
		extent        mosaic.Extent
		tileSize      int
		returnedGrid  *mosaic.TileGrid
		returnedError error
	)

	BeforeEach(func() {
		// 100x50 pixels of 30m
		extent = mosaic.Extent{XMin: 300000, YMin: 5000000, XMax: 303000, YMax: 5001500}
		tileSize = 40
	})

	JustBeforeEach(func() {
		returnedGrid, returnedError = mosaic.NewTileGrid(extent, 30, 30, tileSize)
	})

	Context("regular extent", func() {
		It("it should count ceil(width/(tileSize*pixelSize)) tiles", func() {
			Expect(returnedError).To(BeNil())
			Expect(returnedGrid.Width).To(Equal(100))
			Expect(returnedGrid.Height).To(Equal(50))
			Expect(returnedGrid.Cols).To(Equal(3))
			Expect(returnedGrid.Rows).To(Equal(2))
			Expect(returnedGrid.Count()).To(Equal(6))
		})

		It("it should list tiles in row-major order", func() {
			Expect(returnedGrid.TileIDs()).To(Equal([]mosaic.TileID{"0_0", "1_0", "2_0", "0_1", "1_1", "2_1"}))
		})

		It("it should georeference the tiles", func() {
			t, err := returnedGrid.Tile(1, 1)
			Expect(err).To(BeNil())
			Expect(t.GeoTransform).To(Equal([6]float64{301200, 30, 0, 5000300, 0, -30}))
			Expect(t.Width).To(Equal(40))
			Expect(t.Height).To(Equal(10))
			Expect(t.Extent).To(Equal(mosaic.Extent{XMin: 301200, YMin: 5000000, XMax: 302400, YMax: 5000300}))
		})

		It("it should clip the last column", func() {
			t, err := returnedGrid.TileByID("2_0")
			Expect(err).To(BeNil())
			Expect(t.Width).To(Equal(20))
			Expect(t.Extent.XMax).To(Equal(303000.0))
		})

		It("it should reject tiles out of the grid", func() {
			_, err := returnedGrid.Tile(3, 0)
			Expect(err).NotTo(BeNil())
			_, err = returnedGrid.TileByID("a_b")
			Expect(err).NotTo(BeNil())
		})
	})

	Context("extent smaller than a tile", func() {
		BeforeEach(func() {
			extent.XMax = extent.XMin + 45
		})
		It("it should round up to a whole pixel", func() {
			Expect(returnedError).To(BeNil())
			Expect(returnedGrid.Cols).To(Equal(1))
			Expect(returnedGrid.Width).To(Equal(2))
		})
	})

	Context("degenerate extent", func() {
		BeforeEach(func() {
			extent.YMax = extent.YMin
		})
		It("it should return an InvalidExtent error", func() {
			Expect(mosaic.IsError(returnedError, mosaic.ErrorKindInvalidExtent)).To(BeTrue())
		})
	})

	Context("extent whose number of pixels overflows an int", func() {
		BeforeEach(func() {
			extent = mosaic.Extent{XMin: 0, YMin: 0, XMax: 1e300, YMax: 1}
		})
		It("it should return an InvalidExtent error", func() {
			Expect(mosaic.IsError(returnedError, mosaic.ErrorKindInvalidExtent)).To(BeTrue())
			Expect(returnedGrid).To(BeNil())
		})
	})

	Context("extent with too many tiles", func() {
		BeforeEach(func() {
			// 1e7 x 1e7 m at 30m: 326 x 326 tiles of 1024 pixels, 1e6 x 1e6 tiles of 40 pixels
			extent = mosaic.Extent{XMin: 0, YMin: 0, XMax: 1e7, YMax: 1e7}
		})
		It("it should return an InvalidExtent error", func() {
			Expect(mosaic.IsError(returnedError, mosaic.ErrorKindInvalidExtent)).To(BeTrue())
		})

		Context("with larger tiles", func() {
			BeforeEach(func() {
				tileSize = mosaic.DefaultTileSize
			})
			It("it should be accepted", func() {
				Expect(returnedError).To(BeNil())
				Expect(returnedGrid.Cols).To(Equal(326))
				Expect(returnedGrid.Count()).To(Equal(326 * 326))
			})
		})
	})

	Context("invalid tile size", func() {
		BeforeEach(func() {
			tileSize = 0
		})
		It("it should return an InvalidInput error", func() {
			Expect(mosaic.IsError(returnedError, mosaic.ErrorKindInvalidInput)).To(BeTrue())
		})
	})
})

var _ = Describe("TileID", func() {
	It("it should be parsed back", func() {
		col, row, err := mosaic.ParseTileID(mosaic.NewTileID(12, 7))
		Expect(err).To(BeNil())
		Expect(col).To(Equal(12))
		Expect(row).To(Equal(7))
		Expect(mosaic.NewTileID(12, 7).FileName()).To(Equal("12_7.tif"))
	})
})
