package composite_test

import (
	"github.com/airbusgeo/geomosaic/internal/composite"
	"github.com/airbusgeo/geomosaic/internal/mosaic"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

type noQAFunction struct{}

func (noQAFunction) Name() string     { return "first" }
func (noQAFunction) BandByBand() bool { return true }
func (noQAFunction) Compute(observations []*mosaic.BandArray, qa []*mosaic.BandArray, nodata float64) (*mosaic.BandArray, error) {
	return observations[0], nil
}

type notAJointFunction struct{}

func (notAJointFunction) Name() string     { return "broken" }
func (notAJointFunction) BandByBand() bool { return false }

var _ = Describe("Registry", func() {
	var registry *composite.Registry

	BeforeEach(func() {
		registry = composite.DefaultRegistry(composite.DefaultQAFilter())
	})

	It("it should list the functions in registration order", func() {
		Expect(registry.Names()).To(Equal([]string{"max", "min", "median", "mostrecent", "bestpixel"}))
	})

	It("it should find a function by name or by index", func() {
		f, err := registry.Get("MostRecent")
		Expect(err).To(BeNil())
		Expect(f.Name()).To(Equal("mostrecent"))
		Expect(f.BandByBand()).To(BeTrue())

		f, err = registry.At(4)
		Expect(err).To(BeNil())
		Expect(f.Name()).To(Equal("bestpixel"))
		Expect(f.BandByBand()).To(BeFalse())
	})

	It("it should return an InvalidInput error for an unknown function", func() {
		_, err := registry.Get("mean")
		Expect(mosaic.IsError(err, mosaic.ErrorKindInvalidInput)).To(BeTrue())
		_, err = registry.At(5)
		Expect(mosaic.IsError(err, mosaic.ErrorKindInvalidInput)).To(BeTrue())
	})

	It("it should refuse duplicates", func() {
		Expect(registry.Register(composite.NewMax(composite.DefaultQAFilter()))).NotTo(Succeed())
	})

	It("it should refuse functions not implementing their topology", func() {
		Expect(registry.Register(notAJointFunction{})).NotTo(Succeed())
	})

	It("it should tell which functions support QA coverages", func() {
		Expect(registry.Register(noQAFunction{})).To(Succeed())
		for _, name := range registry.Names() {
			f, _ := registry.Get(name)
			Expect(composite.SupportsQA(f)).To(Equal(name != "first"), name)
		}
	})
})

var _ = Describe("QAFilter", func() {
	It("it should flag the default Landsat codes", func() {
		f := composite.DefaultQAFilter()
		Expect(f.Clear(qaClear)).To(BeTrue())
		Expect(f.Clear(qaCirrus)).To(BeTrue())
		Expect(f.Clear(qaCloud)).To(BeFalse())
		Expect(f.Clear(qaShadow)).To(BeFalse())
		Expect(f.Clear(qaFill)).To(BeFalse())
		Expect(f.Score(qaClear)).To(Equal(2))
		Expect(f.Score(qaCloud)).To(Equal(4))
	})

	It("it should accept custom expressions", func() {
		f, err := composite.NewQAFilter("qa == 66 || qa == 130", "qa % 7")
		Expect(err).To(BeNil())
		Expect(f.Clear(66)).To(BeTrue())
		Expect(f.Clear(322)).To(BeFalse())
		Expect(f.Score(10)).To(Equal(3))
		// memoized
		Expect(f.Clear(66)).To(BeTrue())
	})

	It("it should reject invalid expressions", func() {
		_, err := composite.NewQAFilter("hasBit(qa)", "")
		Expect(err).NotTo(BeNil())
		_, err = composite.NewQAFilter("qa + 1", "")
		Expect(err).NotTo(BeNil())
	})
})
