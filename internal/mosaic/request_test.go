package mosaic_test

import (
	"time"

	"github.com/airbusgeo/geomosaic/internal/mosaic"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"
)

var _ = Describe("ParseRequest", func() {
	var (
		raw           mosaic.RawRequest
		returnedReq   *mosaic.Request
		returnedError error
	)

	BeforeEach(func() {
		raw = mosaic.RawRequest{
			Coverage:  "landsat8",
			XMin:      "100",
			YMin:      "200",
			XMax:      "160",
			YMax:      "230.5",
			StartDate: "2020-03-01",
			EndDate:   "2020-06-30",
			Function:  "max",
		}
	})

	JustBeforeEach(func() {
		returnedReq, returnedError = mosaic.ParseRequest(raw)
	})

	var (
		itShouldNotReturnAnError = func() {
			It("it should not return an error", func() {
				Expect(returnedError).To(BeNil())
			})
		}
		itShouldReturnAnInvalidInput = func() {
			It("it should return an InvalidInput error", func() {
				Expect(returnedReq).To(BeNil())
				Expect(mosaic.IsError(returnedError, mosaic.ErrorKindInvalidInput)).To(BeTrue(), "%v", returnedError)
			})
		}
	)

	Context("valid request", func() {
		itShouldNotReturnAnError()
		It("it should parse the bounds and the dates", func() {
			Expect(returnedReq.Extent).To(Equal(mosaic.Extent{XMin: 100, YMin: 200, XMax: 160, YMax: 230.5}))
			Expect(returnedReq.Window.Start).To(Equal(time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)))
			Expect(returnedReq.Window.End).To(Equal(time.Date(2020, 6, 30, 0, 0, 0, 0, time.UTC)))
			Expect(returnedReq.Format).To(Equal(mosaic.FormatVRT))
		})
	})

	Context("years only", func() {
		BeforeEach(func() {
			raw.StartDate, raw.EndDate = "2018", "2019"
		})
		itShouldNotReturnAnError()
		It("it should cover both years entirely", func() {
			Expect(returnedReq.Window.Start).To(Equal(time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)))
			Expect(returnedReq.Window.End).To(Equal(time.Date(2019, 12, 31, 0, 0, 0, 0, time.UTC)))
		})
	})

	Context("same start and end year", func() {
		BeforeEach(func() {
			raw.StartDate, raw.EndDate = "2019", "2019"
		})
		itShouldNotReturnAnError()
	})

	Context("unbounded dates", func() {
		BeforeEach(func() {
			raw.StartDate, raw.EndDate = "", ""
		})
		itShouldNotReturnAnError()
		It("it should contain any date", func() {
			Expect(returnedReq.Window.Contains(time.Date(1972, 7, 23, 0, 0, 0, 0, time.UTC))).To(BeTrue())
			Expect(returnedReq.Window.Contains(time.Date(2031, 1, 1, 0, 0, 0, 0, time.UTC))).To(BeTrue())
		})
	})

	Context("unparseable bound", func() {
		BeforeEach(func() {
			raw.YMax = "12,5"
		})
		itShouldReturnAnInvalidInput()
	})

	Context("NaN bound", func() {
		BeforeEach(func() {
			raw.XMin = "NaN"
		})
		itShouldReturnAnInvalidInput()
	})

	Context("inverted extent", func() {
		BeforeEach(func() {
			raw.XMin, raw.XMax = "160", "100"
		})
		itShouldReturnAnInvalidInput()
	})

	Context("degenerate extent", func() {
		BeforeEach(func() {
			raw.XMax = raw.XMin
		})
		itShouldNotReturnAnError()
		It("it should be detected as degenerate", func() {
			Expect(returnedReq.Extent.Degenerate()).To(BeTrue())
		})
	})

	Context("unparseable date", func() {
		BeforeEach(func() {
			raw.StartDate = "first of march"
		})
		itShouldReturnAnInvalidInput()
	})

	Context("inverted dates", func() {
		BeforeEach(func() {
			raw.StartDate, raw.EndDate = "2020-06-30", "2020-03-01"
		})
		itShouldReturnAnInvalidInput()
	})

	Context("missing function", func() {
		BeforeEach(func() {
			raw.Function = " "
		})
		itShouldReturnAnInvalidInput()
	})

	Context("missing coverage", func() {
		BeforeEach(func() {
			raw.Coverage = ""
		})
		itShouldReturnAnInvalidInput()
	})

	Context("physical output", func() {
		BeforeEach(func() {
			raw.Format = "GeoTIFF"
		})
		It("it should be a GTiff", func() {
			Expect(returnedReq.Format).To(Equal(mosaic.FormatGTiff))
			Expect(returnedReq.Format.Extension()).To(Equal(".tif"))
		})
	})

	Context("unknown output format", func() {
		BeforeEach(func() {
			raw.Format = "png"
		})
		itShouldReturnAnInvalidInput()
	})
})

var _ = Describe("TimeWindow", func() {
	window := mosaic.TimeWindow{
		Start: time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2020, 3, 31, 0, 0, 0, 0, time.UTC),
	}

	It("it should be inclusive at both ends", func() {
		Expect(window.Contains(time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC))).To(BeTrue())
		Expect(window.Contains(time.Date(2020, 3, 31, 23, 59, 0, 0, time.UTC))).To(BeTrue())
	})

	It("it should exclude dates outside of the window", func() {
		Expect(window.Contains(time.Date(2020, 2, 29, 23, 59, 0, 0, time.UTC))).To(BeFalse())
		Expect(window.Contains(time.Date(2020, 4, 1, 0, 0, 0, 0, time.UTC))).To(BeFalse())
	})

	It("it should use the calendar day of the acquisition in its own time zone", func() {
		evening, err := mosaic.ParseDate("2020-03-31T23:00:00-05:00")
		Expect(err).To(BeNil())
		Expect(window.Contains(evening)).To(BeTrue())
		morning, err := mosaic.ParseDate("2020-03-01T01:00:00+09:00")
		Expect(err).To(BeNil())
		Expect(window.Contains(morning)).To(BeTrue())
		Expect(window.Contains(evening.AddDate(0, 0, 1))).To(BeFalse())
	})
})

var _ = Describe("ParseDate", func() {
	DescribeTable("supported formats",
		func(s string, expected time.Time) {
			t, err := mosaic.ParseDate(s)
			Expect(err).To(BeNil())
			Expect(t).To(Equal(expected))
		},
		Entry("date", "2019-05-04", time.Date(2019, 5, 4, 0, 0, 0, 0, time.UTC)),
		Entry("rfc3339", "2019-05-04T10:11:12Z", time.Date(2019, 5, 4, 10, 11, 12, 0, time.UTC)),
		Entry("datetime", "2019-05-04 10:11:12", time.Date(2019, 5, 4, 10, 11, 12, 0, time.UTC)),
		Entry("year", "2019", time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)),
	)

	It("it should keep the offset of the date", func() {
		t, err := mosaic.ParseDate("2019-12-31T22:00:00-03:00")
		Expect(err).To(BeNil())
		Expect(t.Format("2006-01-02")).To(Equal("2019-12-31"))
		Expect(t.Equal(time.Date(2020, 1, 1, 1, 0, 0, 0, time.UTC))).To(BeTrue())
	})

	It("it should reject garbage", func() {
		_, err := mosaic.ParseDate("yesterday")
		Expect(mosaic.IsError(err, mosaic.ErrorKindInvalidInput)).To(BeTrue())
	})
})
