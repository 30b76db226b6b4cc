/*
	Package ziptrans extracts zip archives, placing them with the same
	logic the tar transmat uses.
*/
package ziptrans

import (
	"github.com/polydawn/ustar/transmat/util"
)

var (
	ExtractFile util.ExtractFunc = util.CreateExtractor(UnpackStream)
	ScanFile    util.ScanFunc    = util.CreateScanner(UnpackStream)
)
