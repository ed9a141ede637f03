package mosaic_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/airbusgeo/geomosaic/internal/mosaic"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("MosaicError", func() {
	It("it should be found through wrapping", func() {
		err := fmt.Errorf("engine.process: %w", mosaic.NewNoDataInExtent("no tile in %s", "folder"))
		Expect(mosaic.IsError(err, mosaic.ErrorKindNoDataInExtent)).To(BeTrue())
		Expect(mosaic.IsError(err, mosaic.ErrorKindIOFailure)).To(BeFalse())
		Expect(err.Error()).To(Equal("engine.process: NoDataInExtent: no tile in folder"))
	})

	It("it should wrap the cause of an IOFailure", func() {
		err := mosaic.NewIOFailure(io.ErrUnexpectedEOF, "read %s", "0_0.tif")
		Expect(errors.Is(err, io.ErrUnexpectedEOF)).To(BeTrue())
		kind, ok := mosaic.KindOf(err)
		Expect(ok).To(BeTrue())
		Expect(kind).To(Equal(mosaic.ErrorKindIOFailure))
		Expect(err.Error()).To(Equal("IOFailure: read 0_0.tif: unexpected EOF"))
	})

	It("it should not classify foreign errors", func() {
		_, ok := mosaic.KindOf(io.EOF)
		Expect(ok).To(BeFalse())
	})

	It("it should be marshalled by name", func() {
		b, err := json.Marshal(mosaic.ErrorKindEmptySelection)
		Expect(err).To(BeNil())
		Expect(string(b)).To(Equal(`"EmptySelection"`))
		var k mosaic.ErrorKind
		Expect(json.Unmarshal([]byte(`"invalidextent"`), &k)).To(Succeed())
		Expect(k).To(Equal(mosaic.ErrorKindInvalidExtent))
	})
})

var _ = Describe("State", func() {
	It("it should follow the lifecycle", func() {
		lifecycle := []mosaic.State{mosaic.StateIdle, mosaic.StateValidating, mosaic.StateResolvingTiles,
			mosaic.StateProcessingTiles, mosaic.StateMerging, mosaic.StateDone}
		for i := 1; i < len(lifecycle); i++ {
			Expect(lifecycle[i-1].CanTransitionTo(lifecycle[i])).To(BeTrue(), lifecycle[i].String())
		}
	})

	It("it should fail from any active state", func() {
		for _, s := range []mosaic.State{mosaic.StateValidating, mosaic.StateResolvingTiles, mosaic.StateProcessingTiles, mosaic.StateMerging} {
			Expect(s.CanTransitionTo(mosaic.StateFailed)).To(BeTrue(), s.String())
		}
	})

	It("it should not skip states nor leave terminal states", func() {
		Expect(mosaic.StateIdle.CanTransitionTo(mosaic.StateMerging)).To(BeFalse())
		Expect(mosaic.StateIdle.CanTransitionTo(mosaic.StateFailed)).To(BeFalse())
		Expect(mosaic.StateDone.CanTransitionTo(mosaic.StateFailed)).To(BeFalse())
		Expect(mosaic.StateFailed.CanTransitionTo(mosaic.StateIdle)).To(BeFalse())
		Expect(mosaic.StateDone.IsTerminal()).To(BeTrue())
		Expect(mosaic.StateMerging.IsTerminal()).To(BeFalse())
	})
})

var _ = Describe("Coverage", func() {
	It("it should locate the QA band", func() {
		c, err := mosaic.NewCoverage("l8", []string{"red", "green", "pixel_qa"})
		Expect(err).To(BeNil())
		Expect(c.QABandIndex()).To(Equal(2))
		Expect(c.HasQA()).To(BeTrue())
	})

	It("it should reject duplicate bands", func() {
		_, err := mosaic.NewCoverage("l8", []string{"red", "red"})
		Expect(mosaic.IsError(err, mosaic.ErrorKindInvalidInput)).To(BeTrue())
	})
})

var _ = Describe("BandArray", func() {
	It("it should handle no-data", func() {
		b := mosaic.NewBandArray(2, 1, -9999)
		Expect(b.Valid(0)).To(BeFalse())
		b.Pixels[1] = 3
		v, ok := b.Value(1)
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal(3.0))
		var absent *mosaic.BandArray
		Expect(absent.Valid(0)).To(BeFalse())
	})

	It("it should provide a default sentinel per type", func() {
		Expect(mosaic.DTypeUINT16.DefaultNoData()).To(Equal(65535.0))
		Expect(mosaic.DTypeINT16.DefaultNoData()).To(Equal(-9999.0))
		Expect(mosaic.DTypeFromString("Byte")).To(Equal(mosaic.DTypeUINT8))
	})
})
