package container

import (
	"strconv"

	"github.com/ironplc/ironplc-go/lang/core"
	"github.com/ironplc/ironplc-go/lang/problems"
)

func newInvalidMagicError() error {
	return core.NewDiagnostic(problems.InvalidMagic, core.Label{Message: problems.Format(problems.InvalidMagic)})
}

func newSectionSizeMismatchError(section string) error {
	return core.NewDiagnostic(
		problems.SectionSizeMismatch,
		core.Label{Message: problems.Format(problems.SectionSizeMismatch, section)},
	)
}

func newInvalidConstantIndexError(idx uint16) error {
	return core.NewDiagnostic(
		problems.InvalidConstantIndex,
		core.Label{Message: problems.Format(problems.InvalidConstantIndex, idx)},
	).WithContext("index", strconv.Itoa(int(idx)))
}

func newInvalidConstantTypeError(tag uint8) error {
	return core.NewDiagnostic(
		problems.InvalidConstantType,
		core.Label{Message: problems.Format(problems.InvalidConstantType, tag)},
	).WithContext("type_tag", strconv.Itoa(int(tag)))
}
