package cartridge

import (
	"bytes"
	"errors"
	"testing"
)

// buildINES assembles a minimal iNES image: header + PRG + CHR, no trainer.
func buildINES(mapperID uint8, mirrorVertical, fourScreen bool, prgBanks, chrBanks uint8) []byte {
	var buf bytes.Buffer
	buf.WriteString("NES\x1A")
	buf.WriteByte(prgBanks)
	buf.WriteByte(chrBanks)

	flags6 := (mapperID & 0x0F) << 4
	if mirrorVertical {
		flags6 |= 0x01
	}
	if fourScreen {
		flags6 |= 0x08
	}
	buf.WriteByte(flags6)
	buf.WriteByte((mapperID & 0xF0))
	buf.Write(make([]byte, 8)) // PRGRAMSize, TV flags, padding

	buf.Write(make([]byte, int(prgBanks)*16384))
	if chrBanks > 0 {
		buf.Write(make([]byte, int(chrBanks)*8192))
	}
	return buf.Bytes()
}

func TestLoadFromReader_NROM(t *testing.T) {
	data := buildINES(0, false, false, 2, 1)
	cart, err := LoadFromReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cart.MirrorMode() != MirrorHorizontal {
		t.Errorf("mirror = %v, want Horizontal", cart.MirrorMode())
	}
	if len(cart.prgROM) != 32768 {
		t.Errorf("len(prgROM) = %d, want 32768", len(cart.prgROM))
	}
}

func TestLoadFromReader_InvalidMagic(t *testing.T) {
	data := buildINES(0, false, false, 1, 1)
	data[0] = 'X'
	_, err := LoadFromReader(bytes.NewReader(data))
	var hdrErr *InvalidHeader
	if !errors.As(err, &hdrErr) {
		t.Fatalf("err = %v, want *InvalidHeader", err)
	}
}

func TestLoadFromReader_ZeroPRG(t *testing.T) {
	data := buildINES(0, false, false, 0, 1)
	_, err := LoadFromReader(bytes.NewReader(data))
	var hdrErr *InvalidHeader
	if !errors.As(err, &hdrErr) {
		t.Fatalf("err = %v, want *InvalidHeader", err)
	}
}

func TestLoadFromReader_Truncated(t *testing.T) {
	data := buildINES(0, false, false, 1, 1)
	truncated := data[:len(data)-100]
	_, err := LoadFromReader(bytes.NewReader(truncated))
	var trErr *Truncated
	if !errors.As(err, &trErr) {
		t.Fatalf("err = %v, want *Truncated", err)
	}
}

func TestLoadFromReader_UnsupportedMapper(t *testing.T) {
	data := buildINES(4, false, false, 1, 1)
	_, err := LoadFromReader(bytes.NewReader(data))
	var mapErr *UnsupportedMapper
	if !errors.As(err, &mapErr) {
		t.Fatalf("err = %v, want *UnsupportedMapper", err)
	}
	if mapErr.MapperID != 4 {
		t.Errorf("MapperID = %d, want 4", mapErr.MapperID)
	}
}

func TestMirrorVRAM(t *testing.T) {
	cases := []struct {
		mode    MirrorMode
		addr    uint16
		want    uint16
	}{
		{MirrorHorizontal, 0x2000, 0x000},
		{MirrorHorizontal, 0x2400, 0x000},
		{MirrorHorizontal, 0x2800, 0x400},
		{MirrorHorizontal, 0x2C00, 0x400},
		{MirrorVertical, 0x2000, 0x000},
		{MirrorVertical, 0x2400, 0x400},
		{MirrorVertical, 0x2800, 0x000},
		{MirrorVertical, 0x2C00, 0x400},
		{MirrorSingleScreen0, 0x2C00, 0x000},
		{MirrorSingleScreen1, 0x2000, 0x400},
		{MirrorFourScreen, 0x2800, 0x800},
	}
	for _, tc := range cases {
		got := MirrorVRAM(tc.mode, tc.addr)
		if got != tc.want {
			t.Errorf("MirrorVRAM(%v, %#04x) = %#04x, want %#04x", tc.mode, tc.addr, got, tc.want)
		}
	}
}

func TestMapper000_PRGMirroring(t *testing.T) {
	data := buildINES(0, false, false, 1, 1)
	cart, err := LoadFromReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	cart.prgROM[0] = 0x42
	if got := cart.ReadPRG(0x8000); got != 0x42 {
		t.Errorf("ReadPRG(0x8000) = %#02x, want 0x42", got)
	}
	if got := cart.ReadPRG(0xC000); got != 0x42 {
		t.Errorf("ReadPRG(0xC000) = %#02x, want 0x42 (16KB mirror)", got)
	}
}

func TestCartridge_ReadWriteCHR_InvalidAddress(t *testing.T) {
	data := buildINES(0, false, false, 1, 1)
	cart, err := LoadFromReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	if _, err := cart.ReadCHR(0x2000); err == nil {
		t.Fatal("ReadCHR(0x2000) = nil error, want InvalidChrAddress")
	} else {
		var chrErr *InvalidChrAddress
		if !errors.As(err, &chrErr) {
			t.Fatalf("err = %v, want *InvalidChrAddress", err)
		}
		if chrErr.Address != 0x2000 {
			t.Errorf("Address = %#04x, want 0x2000", chrErr.Address)
		}
	}

	if err := cart.WriteCHR(0x3000, 0xFF); err == nil {
		t.Fatal("WriteCHR(0x3000) = nil error, want InvalidChrAddress")
	} else {
		var chrErr *InvalidChrAddress
		if !errors.As(err, &chrErr) {
			t.Fatalf("err = %v, want *InvalidChrAddress", err)
		}
	}

	if _, err := cart.ReadCHR(0x1FFF); err != nil {
		t.Errorf("ReadCHR(0x1FFF) returned unexpected error: %v", err)
	}
}

func TestCartridge_PRGRAM(t *testing.T) {
	data := buildINES(0, false, false, 1, 1)
	cart, err := LoadFromReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	cart.WritePRG(0x6000, 0x99)
	if got := cart.ReadPRG(0x6000); got != 0x99 {
		t.Errorf("ReadPRG(0x6000) = %#02x, want 0x99", got)
	}
}
