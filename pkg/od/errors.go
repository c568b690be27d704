package od

import "fmt"

// Code is an Object Dictionary access failure. Its numeric value is
// identical to the CiA 301 SDO abort code it corresponds to, so converting
// an Error to the 4 bytes an SDO abort frame carries is a plain uint32
// cast - the same "zero-cost" relationship the teacher's ODR constants and
// the original Rust ODError/SDOAbortCode pair maintain.
type Code uint32

// Abort codes, as SDO abort code values (CiA 301 catalog).
const (
	ErrToggleBitNotAlternated Code = 0x0503_0000
	ErrCommandSpecifierError  Code = 0x0504_0001
	ErrReadOnlyError          Code = 0x0601_0001
	ErrWriteOnlyError         Code = 0x0601_0002
	ErrObjectDoesNotExist     Code = 0x0602_0000
	ErrObjectCannotBeMapped   Code = 0x0604_0041
	ErrTooLong                Code = 0x0607_0012
	ErrTooShort               Code = 0x0607_0013
	ErrSubindexDoesNotExist   Code = 0x0609_0011
	ErrInvalidValue           Code = 0x0609_0030
	ErrLocalControlError      Code = 0x0800_0021
	ErrDeviceStateError       Code = 0x0800_0022
	ErrGeneralError           Code = 0x0800_0000
)

var codeText = map[Code]string{
	ErrToggleBitNotAlternated: "toggle bit not alternated",
	ErrCommandSpecifierError:  "command specifier error",
	ErrReadOnlyError:          "attempt to write a read-only object",
	ErrWriteOnlyError:         "attempt to read a write-only object",
	ErrObjectDoesNotExist:     "object does not exist",
	ErrObjectCannotBeMapped:   "object cannot be mapped to a PDO",
	ErrTooLong:                "data too long for object",
	ErrTooShort:               "data too short for object",
	ErrSubindexDoesNotExist:   "subindex does not exist",
	ErrInvalidValue:           "invalid value for parameter",
	ErrLocalControlError:      "data cannot be transferred because of local control",
	ErrDeviceStateError:       "data cannot be transferred because of present device state",
	ErrGeneralError:           "general error",
}

// Error is the error type returned by every OD and DataLink operation.
type Error struct {
	Code Code
}

func (e Error) Error() string {
	if text, ok := codeText[e.Code]; ok {
		return text
	}
	return fmt.Sprintf("od: abort code 0x%08X", uint32(e.Code))
}

// Is allows errors.Is(err, ErrXxx) by comparing Code, since ErrXxx sentinels
// below are themselves Error values.
func (e Error) Is(target error) bool {
	other, ok := target.(Error)
	if !ok {
		return false
	}
	return e.Code == other.Code
}

// Sentinel errors for direct comparison and for errors.Is.
var (
	ErrToggle       = Error{ErrToggleBitNotAlternated}
	ErrBadCommand   = Error{ErrCommandSpecifierError}
	ErrReadOnly     = Error{ErrReadOnlyError}
	ErrWriteOnly    = Error{ErrWriteOnlyError}
	ErrNoObject     = Error{ErrObjectDoesNotExist}
	ErrNoSubindex   = Error{ErrSubindexDoesNotExist}
	ErrCannotMap    = Error{ErrObjectCannotBeMapped}
	ErrTooLongData  = Error{ErrTooLong}
	ErrTooShortData = Error{ErrTooShort}
	ErrBadValue     = Error{ErrInvalidValue}
	ErrLocalControl = Error{ErrLocalControlError}
	ErrDeviceState  = Error{ErrDeviceStateError}
	ErrGeneral      = Error{ErrGeneralError}
)
