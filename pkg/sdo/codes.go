// Package sdo implements the SDO server state machine (C5): expedited and
// segmented upload/download over an 8-byte CAN payload, per spec.md §4.4.
// Block transfer (CCS 5/6) is an explicit non-goal and is not implemented.
package sdo

// Command-specifier masks and bit positions, CiA 301 §7.2.4.3.
const (
	ccsMask = 0xE0

	reqDownloadInit = 0x20 // CCS 1: InitiateDownload
	reqDownloadSeg  = 0x00 // CCS 0: SegmentDownload
	reqUploadInit   = 0x40 // CCS 2: InitiateUpload
	reqUploadSeg    = 0x60 // CCS 3: SegmentUpload
	reqAbort        = 0x80 // CCS 4: Abort

	respUploadSeg   = 0x00 // SCS 0
	respDownloadSeg = 0x20 // SCS 1
	respUploadInit  = 0x40 // SCS 2
	respDownloadInit = 0x60 // SCS 3
	respAbort       = 0x80 // SCS 4

	toggleBit        = 0x10
	expeditedBit     = 0x02
	sizeSpecifiedBit = 0x01
	noMoreDataBit    = 0x01
)
