package export

import (
	parquetbuffer "github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/lucasjlepore/trackframe"
)

type canonicalParquetRow struct {
	StartUTC   string  `parquet:"name=start_utc_iso, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	ElapsedS   float64 `parquet:"name=elapsed_s, type=DOUBLE"`
	Lat        float64 `parquet:"name=lat, type=DOUBLE"`
	Lon        float64 `parquet:"name=lon, type=DOUBLE"`
	AltitudeM  float64 `parquet:"name=altitude_m, type=DOUBLE"`
	DistposM   float64 `parquet:"name=distpos_m, type=DOUBLE"`
	DistanceM  float64 `parquet:"name=distance_m, type=DOUBLE"`
	SpeedMPS   float64 `parquet:"name=speed_mps, type=DOUBLE"`
	PaceSecM   float64 `parquet:"name=pace_sec_m, type=DOUBLE"`
	VAMMPS     float64 `parquet:"name=vam_mps, type=DOUBLE"`
	Grade      float64 `parquet:"name=grade, type=DOUBLE"`
	HRBPM      float64 `parquet:"name=hr_bpm, type=DOUBLE"`
	CadenceRPM float64 `parquet:"name=cadence_rpm, type=DOUBLE"`
	PowerW     float64 `parquet:"name=power_w, type=DOUBLE"`
	TempC      float64 `parquet:"name=temperature_c, type=DOUBLE"`
	Moving     bool    `parquet:"name=moving, type=BOOLEAN"`
	HeartZone  string  `parquet:"name=hr_zone, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
}

func parquetRow(s Sample) canonicalParquetRow {
	return canonicalParquetRow{
		StartUTC:   s.StartUTC,
		ElapsedS:   s.ElapsedS,
		Lat:        s.Lat,
		Lon:        s.Lon,
		AltitudeM:  s.AltitudeM,
		DistposM:   s.DistposM,
		DistanceM:  s.DistanceM,
		SpeedMPS:   s.SpeedMPS,
		PaceSecM:   s.PaceSecM,
		VAMMPS:     s.VAMMPS,
		Grade:      s.Grade,
		HRBPM:      s.HRBPM,
		CadenceRPM: s.CadenceRPM,
		PowerW:     s.PowerW,
		TempC:      s.TempC,
		Moving:     s.Moving,
		HeartZone:  s.HeartZone,
	}
}

func writeParquetRows(fw source.ParquetFile, samples []Sample) error {
	pw, err := writer.NewParquetWriter(fw, new(canonicalParquetRow), 4)
	if err != nil {
		return err
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY
	for _, s := range samples {
		if err := pw.Write(parquetRow(s)); err != nil {
			_ = pw.WriteStop()
			return err
		}
	}
	return pw.WriteStop()
}

func writeCanonicalParquet(path string, samples []Sample) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return err
	}
	if err := writeParquetRows(fw, samples); err != nil {
		_ = fw.Close()
		return err
	}
	return fw.Close()
}

// MarshalParquet renders the activity's canonical samples as in-memory
// parquet bytes.
func MarshalParquet(a *trackframe.Activity) ([]byte, error) {
	fw := parquetbuffer.NewBufferFile()
	if err := writeParquetRows(fw, Samples(a)); err != nil {
		return nil, err
	}
	if err := fw.Close(); err != nil {
		return nil, err
	}
	return append([]byte(nil), fw.Bytes()...), nil
}
