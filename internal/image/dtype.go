package image

import (
	"github.com/airbusgeo/geomosaic/internal/mosaic"
	"github.com/airbusgeo/godal"
)

// ToGDAL converts a DType to the corresponding godal.DataType
func ToGDAL(dtype mosaic.DType) godal.DataType {
	switch dtype {
	case mosaic.DTypeUINT8:
		return godal.Byte
	case mosaic.DTypeUINT16:
		return godal.UInt16
	case mosaic.DTypeUINT32:
		return godal.UInt32
	case mosaic.DTypeINT16:
		return godal.Int16
	case mosaic.DTypeINT32:
		return godal.Int32
	case mosaic.DTypeFLOAT32:
		return godal.Float32
	case mosaic.DTypeFLOAT64:
		return godal.Float64
	default:
		// INT8 has no GDAL counterpart
		return godal.Unknown
	}
}

// DTypeFromGDAL converts a godal.DataType to DType
func DTypeFromGDAL(dtype godal.DataType) mosaic.DType {
	switch dtype {
	case godal.Byte:
		return mosaic.DTypeUINT8
	case godal.UInt16:
		return mosaic.DTypeUINT16
	case godal.UInt32:
		return mosaic.DTypeUINT32
	case godal.Int16:
		return mosaic.DTypeINT16
	case godal.Int32:
		return mosaic.DTypeINT32
	case godal.Float32:
		return mosaic.DTypeFLOAT32
	case godal.Float64:
		return mosaic.DTypeFLOAT64
	default:
		return mosaic.DTypeUNDEFINED
	}
}
