package validation

// hdrCheckResult is the outcome of one HDR consistency check.
type hdrCheckResult struct {
	IsValid       bool
	Message       string
	ActualHDR     *bool
	MediaInfoUsed bool
}

// validateHDRResult compares an expected HDR flag against a detected one.
// A nil expectation always passes (there was nothing to check against); a
// nil actual value (detection failed) always fails when an expectation
// was given.
func validateHDRResult(expectedHDR, actualHDR *bool) hdrCheckResult {
	switch {
	case expectedHDR != nil && actualHDR != nil:
		if *expectedHDR == *actualHDR {
			return hdrCheckResult{IsValid: true, Message: hdrLabel(*actualHDR) + " preserved", ActualHDR: actualHDR}
		}
		return hdrCheckResult{
			IsValid:   false,
			Message:   "Expected " + hdrLabel(*expectedHDR) + ", found " + hdrLabel(*actualHDR),
			ActualHDR: actualHDR,
		}
	case expectedHDR == nil && actualHDR != nil:
		return hdrCheckResult{IsValid: true, Message: "Output is " + hdrLabel(*actualHDR), ActualHDR: actualHDR}
	case expectedHDR != nil && actualHDR == nil:
		return hdrCheckResult{IsValid: false, Message: "Expected " + hdrLabel(*expectedHDR) + ", but could not detect HDR status"}
	default:
		return hdrCheckResult{IsValid: false, Message: "Could not detect HDR status"}
	}
}

// validateHDRStatusWithAvailabilityCheck reports the detected HDR status
// for the "no expectation given" path, gated on whether mediainfo is
// actually available to have produced hdrInfo.
func validateHDRStatusWithAvailabilityCheck(path string, hdrInfo *AnalyzerHDRInfo, available bool) hdrCheckResult {
	if !available {
		return hdrCheckResult{IsValid: true, Message: "MediaInfo not installed - HDR validation skipped"}
	}
	if hdrInfo == nil {
		return hdrCheckResult{IsValid: false, Message: "Could not detect HDR status", MediaInfoUsed: true}
	}
	return hdrCheckResult{
		IsValid:       true,
		Message:       "Output is " + hdrLabel(hdrInfo.IsHDR),
		ActualHDR:     &hdrInfo.IsHDR,
		MediaInfoUsed: true,
	}
}

func hdrLabel(isHDR bool) string {
	if isHDR {
		return "HDR"
	}
	return "SDR"
}
