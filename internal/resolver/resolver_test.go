package resolver_test

import (
	"context"
	"fmt"
	"time"

	"github.com/airbusgeo/geomosaic/internal/mosaic"
	"github.com/airbusgeo/geomosaic/internal/mosaic/mocks"
	"github.com/airbusgeo/geomosaic/internal/resolver"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/mock"
)

type layerSource struct {
	layers []mosaic.Layer
	err    error
}

func (s layerSource) Layers(ctx context.Context, coverage string) ([]mosaic.Layer, error) {
	return s.layers, s.err
}

func newLayer(name, date string, valid bool) *mocks.Layer {
	l := &mocks.Layer{}
	l.On("Time").Return(date)
	l.On("DatasetName").Return(name)
	l.On("CoverageName").Return("landsat8")
	l.On("IsValid", mock.Anything).Return(valid)
	l.On("PixelSize", mock.Anything).Return(30.0, 30.0, nil)
	return l
}

func names(layers []mosaic.Layer) []string {
	var res []string
	for _, l := range layers {
		res = append(res, l.DatasetName())
	}
	return res
}

var _ = Describe("Resolve", func() {
	var (
		ctx      = context.Background()
		coverage = &mosaic.Coverage{Name: "landsat8", Bands: []string{"red", "nir", "pixel_qa"}}
		source   layerSource
		extent   mosaic.Extent
		window   mosaic.TimeWindow

		returnedResolution *resolver.Resolution
		returnedError      error
	)

	BeforeEach(func() {
		source = layerSource{layers: []mosaic.Layer{
			newLayer("L3", "2020-03-01", true),
			newLayer("L1", "2020-01-01", true),
			newLayer("broken", "2020-02-01", false),
			newLayer("L2", "2020-02-01T10:30:00Z", true),
			newLayer("L2bis", "2020-02-01", true),
			newLayer("L2ter", "2020-02-01", true),
			newLayer("undated", "sometime", true),
			newLayer("L4", "2020-04-01", true),
		}}
		extent = mosaic.Extent{XMin: 0, YMin: 0, XMax: 3000, YMax: 1500}
		window = mosaic.TimeWindow{Start: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)}
	})

	JustBeforeEach(func() {
		returnedResolution, returnedError = resolver.New(source, 40).Resolve(ctx, coverage, extent, window)
	})

	var (
		itShouldReturnAnError = func(kind mosaic.ErrorKind) {
			It("it should return a "+kind.String()+" error", func() {
				Expect(returnedResolution).To(BeNil())
				Expect(mosaic.IsError(returnedError, kind)).To(BeTrue(), "%v", returnedError)
			})
		}
	)

	Context("time window", func() {
		It("it should keep valid layers, sorted by time, inclusive at both ends", func() {
			Expect(returnedError).To(BeNil())
			// the sort is stable: L2bis and L2ter keep their order
			Expect(names(returnedResolution.Layers)).To(Equal([]string{"L1", "L2bis", "L2ter", "L2", "L3"}))
			Expect(returnedResolution.Times).To(HaveLen(5))
			Expect(returnedResolution.Times[0]).To(Equal(window.Start))
		})

		It("it should tile the extent with the pixel size of the first layer", func() {
			Expect(returnedResolution.Grid.Cols).To(Equal(3))
			Expect(returnedResolution.Grid.Rows).To(Equal(2))
			Expect(returnedResolution.TileIDs).To(Equal([]mosaic.TileID{"0_0", "1_0", "2_0", "0_1", "1_1", "2_1"}))
		})
	})

	Context("window without layer", func() {
		BeforeEach(func() {
			window.Start = time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
			window.End = time.Date(2021, 12, 31, 0, 0, 0, 0, time.UTC)
		})
		itShouldReturnAnError(mosaic.ErrorKindEmptySelection)
	})

	Context("only invalid layers", func() {
		BeforeEach(func() {
			source.layers = []mosaic.Layer{newLayer("broken", "2020-02-01", false)}
		})
		itShouldReturnAnError(mosaic.ErrorKindEmptySelection)
	})

	Context("degenerate extent", func() {
		BeforeEach(func() {
			extent.XMax = extent.XMin
		})
		itShouldReturnAnError(mosaic.ErrorKindInvalidExtent)
		It("it should not query the layers", func() {
			for _, l := range source.layers {
				l.(*mocks.Layer).AssertNotCalled(GinkgoT(), "IsValid", mock.Anything)
			}
		})
	})

	Context("pixel size unavailable", func() {
		BeforeEach(func() {
			l := &mocks.Layer{}
			l.On("Time").Return("2020-01-15")
			l.On("DatasetName").Return("remote")
			l.On("IsValid", mock.Anything).Return(true)
			l.On("PixelSize", mock.Anything).Return(0.0, 0.0, fmt.Errorf("connection reset"))
			source.layers = []mosaic.Layer{l}
		})
		itShouldReturnAnError(mosaic.ErrorKindIOFailure)
	})

	Context("connector failure", func() {
		BeforeEach(func() {
			source.err = fmt.Errorf("catalog unavailable")
		})
		It("it should return the error", func() {
			Expect(returnedError).To(MatchError(ContainSubstring("catalog unavailable")))
		})
	})
})
