package composite_test

import (
	"github.com/airbusgeo/geomosaic/internal/composite"
	"github.com/airbusgeo/geomosaic/internal/mosaic"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("BandFunctions", func() {
	var (
		function      composite.BandFunction
		observations  []*mosaic.BandArray
		qa            []*mosaic.BandArray
		returnedArray *mosaic.BandArray
		returnedError error
		filter        = composite.DefaultQAFilter()
	)

	JustBeforeEach(func() {
		returnedArray, returnedError = function.Compute(observations, qa, out)
	})

	var (
		itShouldNotReturnAnError = func() {
			It("it should not return an error", func() {
				Expect(returnedError).To(BeNil())
			})
		}
		itShouldReturn = func(expected ...float64) {
			It("it should return the expected pixels", func() {
				Expect(returnedArray.Pixels).To(Equal(expected))
				Expect(returnedArray.NoData).To(Equal(out))
				Expect(returnedArray.HasNoData).To(BeTrue())
			})
		}
	)

	Describe("max", func() {
		BeforeEach(func() {
			function = composite.NewMax(filter)
			qa = nil
		})

		Context("three layers without QA", func() {
			BeforeEach(func() {
				observations = []*mosaic.BandArray{row(1, nd, 7, nd), row(5, 2, 3, nd), row(3, nd, 9, nd)}
			})
			itShouldNotReturnAnError()
			itShouldReturn(5, 2, 9, out)
		})

		Context("absent layer", func() {
			BeforeEach(func() {
				observations = []*mosaic.BandArray{row(1, 4), nil, row(3, nd)}
			})
			itShouldNotReturnAnError()
			itShouldReturn(3, 4)
		})

		Context("with QA", func() {
			BeforeEach(func() {
				observations = []*mosaic.BandArray{row(1, 8, 6), row(5, 2, 3), row(3, 9, nd)}
				qa = []*mosaic.BandArray{row(qaClear, qaClear, qaCloud), row(qaCloud, qaClear, qaShadow), row(qaClear, qaCloud, qaClear)}
			})
			itShouldNotReturnAnError()
			// cloudy observations are ignored unless no observation is clear
			itShouldReturn(3, 8, 6)

			It("it should return a QA mask", func() {
				mask, err := function.(composite.QAMasker).ComputeQAMask(qa, out)
				Expect(err).To(BeNil())
				Expect(mask.Pixels).To(Equal([]float64{qaClear, qaClear, qaClear}))
			})
		})

		Context("inconsistent shapes", func() {
			BeforeEach(func() {
				observations = []*mosaic.BandArray{row(1, 2), row(1, 2, 3)}
			})
			It("it should return an error", func() {
				Expect(returnedError).NotTo(BeNil())
			})
		})

		Context("missing QA arrays", func() {
			BeforeEach(func() {
				observations = []*mosaic.BandArray{row(1, 2), row(1, 2)}
				qa = []*mosaic.BandArray{row(qaClear, qaClear)}
			})
			It("it should return an error", func() {
				Expect(returnedError).NotTo(BeNil())
			})
		})

		Context("only absent layers", func() {
			BeforeEach(func() {
				observations = []*mosaic.BandArray{nil, nil}
			})
			It("it should return an error", func() {
				Expect(returnedError).NotTo(BeNil())
			})
		})
	})

	Describe("min", func() {
		BeforeEach(func() {
			function = composite.NewMin(filter)
			observations = []*mosaic.BandArray{row(4, nd, 7), row(5, nd, 3), row(3, nd, nd)}
			qa = nil
		})
		itShouldNotReturnAnError()
		itShouldReturn(3, out, 3)
	})

	Describe("median", func() {
		BeforeEach(func() {
			function = composite.NewMedian(filter)
			observations = []*mosaic.BandArray{row(4, 1, nd, nd), row(5, 2, 8, nd), row(1, nd, nd, nd), row(10, 3, nd, nd)}
			qa = nil
		})
		itShouldNotReturnAnError()
		// even count | odd count | single observation | no observation
		itShouldReturn(4.5, 2, 8, out)

		It("it should not modify the observations", func() {
			Expect(observations[0].Pixels).To(Equal([]float64{4, 1, nd, nd}))
			Expect(observations[2].Pixels).To(Equal([]float64{1, nd, nd, nd}))
		})

		Context("with absent layers only at a pixel", func() {
			BeforeEach(func() {
				observations = []*mosaic.BandArray{nil, row(nd, 6), nil}
			})
			itShouldNotReturnAnError()
			itShouldReturn(out, 6)
		})
	})

	Describe("mostrecent", func() {
		BeforeEach(func() {
			function = composite.NewMostRecent(filter)
			observations = []*mosaic.BandArray{row(1, 1, 1, nd), row(2, 2, 2, nd), row(3, 3, nd, nd)}
			qa = []*mosaic.BandArray{row(qaClear, qaClear, qaClear, nd), row(qaClear, qaCloud, qaCloud, nd), row(qaFill, qaShadow, nd, nd)}
		})
		itShouldNotReturnAnError()
		itShouldReturn(2, 1, 1, out)

		It("it should return the QA of the selected observations", func() {
			mask, err := function.(composite.QAMasker).ComputeQAMask(qa, out)
			Expect(err).To(BeNil())
			Expect(mask.Pixels).To(Equal([]float64{qaClear, qaClear, qaClear, out}))
		})

		It("it should be idempotent", func() {
			again, err := function.Compute(observations, qa, out)
			Expect(err).To(BeNil())
			Expect(again).To(Equal(returnedArray))
		})
	})
})

var _ = Describe("BestPixel", func() {
	var (
		function       = composite.NewBestPixel(composite.DefaultQAFilter())
		observations   [][]*mosaic.BandArray
		qaBand         int
		returnedArrays []*mosaic.BandArray
		returnedError  error
	)

	JustBeforeEach(func() {
		returnedArrays, returnedError = function.ComputeJoint(observations, qaBand, out)
	})

	pixels := func(arrays []*mosaic.BandArray) [][]float64 {
		res := make([][]float64, len(arrays))
		for i, a := range arrays {
			res[i] = a.Pixels
		}
		return res
	}

	Context("without QA", func() {
		BeforeEach(func() {
			qaBand = -1
			// [band][time], 3 pixels
			observations = [][]*mosaic.BandArray{
				{row(10, 11, nd), row(20, 21, nd), row(30, nd, nd)},
				{row(1, 2, nd), row(4, 5, nd), row(7, 8, nd)},
			}
		})
		It("it should copy the band vector of the most recent complete observation", func() {
			Expect(returnedError).To(BeNil())
			Expect(pixels(returnedArrays)).To(Equal([][]float64{{30, 21, out}, {7, 5, out}}))
		})
	})

	Context("with QA", func() {
		BeforeEach(func() {
			qaBand = 2
			observations = [][]*mosaic.BandArray{
				{row(10, 11, 12, 13), row(20, 21, 22, 23), row(30, 31, 32, nd)},
				{row(1, 2, 3, 4), row(4, 5, 6, 7), row(7, 8, 9, nd)},
				{row(qaClear, qaCloud, qaCirrus, qaClear), row(qaCloud, qaShadow, qaClear, qaClear), row(qaCloud, qaSnow, qaClear, qaClear)},
			}
		})
		It("it should not return an error", func() {
			Expect(returnedError).To(BeNil())
		})
		It("it should select clear first, then least cloudy, then most recent", func() {
			Expect(pixels(returnedArrays)).To(Equal([][]float64{
				// clear t0 | only snow t2 is clear | t1 and t2 tie => most recent | t2 has no valid band
				{10, 31, 32, 23},
				{1, 8, 9, 7},
				{qaClear, qaSnow, qaClear, qaClear},
			}))
		})
		It("it should compute the QA mask of the selected steps", func() {
			mask, err := function.ComputeQAMask(composite.JointQA(observations, qaBand), out)
			Expect(err).To(BeNil())
			Expect(mask.Pixels).To(Equal(returnedArrays[qaBand].Pixels))
		})
	})

	Context("clear QA on an observation without valid band", func() {
		BeforeEach(func() {
			qaBand = 1
			observations = [][]*mosaic.BandArray{
				{row(5, nd), row(nd, nd), nil},
				{row(qaCloud, qaClear), row(qaClear, qaClear), nil},
			}
		})
		It("it should select the cloudy observation having data", func() {
			Expect(returnedError).To(BeNil())
			Expect(pixels(returnedArrays)).To(Equal([][]float64{{5, out}, {qaCloud, out}}))
		})
		It("it should compute the same QA mask", func() {
			mask, err := function.ComputeQAMask(composite.JointQA(observations, qaBand), out)
			Expect(err).To(BeNil())
			Expect(mask.Pixels).To(Equal([]float64{qaCloud, out}))
		})
		It("it should not modify the QA observations", func() {
			composite.JointQA(observations, qaBand)
			Expect(observations[1][1].Pixels).To(Equal([]float64{qaClear, qaClear}))
		})
	})

	Context("single observation", func() {
		BeforeEach(func() {
			qaBand = -1
			observations = [][]*mosaic.BandArray{{row(3, nd)}, {row(nd, 4)}}
		})
		It("it should copy it verbatim", func() {
			Expect(pixels(returnedArrays)).To(Equal([][]float64{{3, out}, {out, 4}}))
		})
	})

	Context("inconsistent time series", func() {
		BeforeEach(func() {
			qaBand = -1
			observations = [][]*mosaic.BandArray{{row(1), row(2)}, {row(1)}}
		})
		It("it should return an error", func() {
			Expect(returnedError).NotTo(BeNil())
		})
	})
})
