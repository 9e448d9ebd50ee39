package shader

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// computeEntryRegex matches @compute functions and captures the entry point name
	computeEntryRegex = regexp.MustCompile(`(?s)@compute\b.*?\bfn\s+(\w+)`)

	// workgroupSizeRegex captures 1-3 integer dimensions from @workgroup_size(x[, y[, z]])
	workgroupSizeRegex = regexp.MustCompile(`@workgroup_size\(\s*(\d+)\s*(?:,\s*(\d+)\s*(?:,\s*(\d+)\s*)?)?\)`)

	// blockCommentRegex matches /* ... */ comments
	blockCommentRegex = regexp.MustCompile(`(?s)/\*.*?\*/`)
)

// parseWorkgroupSize extracts the @workgroup_size dimensions from compute shader source.
// Missing dimensions default to 1.
//
// Parameters:
//   - source: the pre-processed WGSL source code string
//
// Returns:
//   - [3]uint32: the workgroup size as [x, y, z]
func parseWorkgroupSize(source string) [3]uint32 {
	cleaned := stripComments(source)
	result := [3]uint32{1, 1, 1}

	match := workgroupSizeRegex.FindStringSubmatch(cleaned)
	if match == nil {
		return result
	}

	for i := 1; i <= 3; i++ {
		if match[i] == "" {
			continue
		}
		if v, err := strconv.ParseUint(match[i], 10, 32); err == nil {
			result[i-1] = uint32(v)
		}
	}
	return result
}

// parseEntryPoint extracts the @compute entry point function name from WGSL source.
// Returns an empty string if no compute entry point is found.
func parseEntryPoint(source string) string {
	if match := computeEntryRegex.FindStringSubmatch(stripComments(source)); match != nil {
		return match[1]
	}
	return ""
}

// stripComments removes block and line comments from WGSL source.
func stripComments(source string) string {
	source = blockCommentRegex.ReplaceAllString(source, "")
	var sb strings.Builder
	for line := range strings.SplitSeq(source, "\n") {
		if idx := strings.Index(line, "//"); idx >= 0 {
			line = line[:idx]
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return sb.String()
}
