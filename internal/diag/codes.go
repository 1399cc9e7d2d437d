package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// IR generation
	IRGenInfo          Code = 1000
	IRGenUnimplemented Code = 1001
	IRGenFailure       Code = 1002

	// I/O
	IOLoadFileError  Code = 4000
	IOWriteFileError Code = 4001

	// project manifest
	ProjInfo                   Code = 5000
	ProjInvalidManifest        Code = 5001
	ProjDuplicateUnit          Code = 5002
	ProjUnknownRuntimeFunction Code = 5003
	ProjInvalidLinkKind        Code = 5004
	ProjEmptyLinkName          Code = 5005
	ProjInvalidTarget          Code = 5006
	ProjInvalidUnitName        Code = 5007

	// observability
	ObsInfo    Code = 6000
	ObsTimings Code = 6001
)

var (
	codeDescription = map[Code]string{
		UnknownCode:                "Unknown error",
		IRGenInfo:                  "IR generation information",
		IRGenUnimplemented:         "construct has no code generation support",
		IRGenFailure:               "IR generation failed",
		IOLoadFileError:            "I/O load file error",
		IOWriteFileError:           "I/O write file error",
		ProjInfo:                   "Project information",
		ProjInvalidManifest:        "Invalid project manifest",
		ProjDuplicateUnit:          "Duplicate unit definition",
		ProjUnknownRuntimeFunction: "Unknown runtime function",
		ProjInvalidLinkKind:        "Invalid link library kind",
		ProjEmptyLinkName:          "Link library name is empty",
		ProjInvalidTarget:          "Invalid target description",
		ProjInvalidUnitName:        "Unit name is not a valid file name",
		ObsInfo:                    "Observability information",
		ObsTimings:                 "Pipeline timings",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("IRG%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("PRJ%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
