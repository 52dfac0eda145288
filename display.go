package listsim

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"
)

// DisplayConfig controls how DataFrames are formatted when printed.
type DisplayConfig struct {
	// MaxRows is the maximum number of rows to display.
	// If the DataFrame has more rows, it shows head and tail rows with "..." in between.
	// Default: 10 (5 head + 5 tail)
	MaxRows int

	// MaxCols is the maximum number of columns to display.
	// If the DataFrame has more columns, middle columns are replaced with "...".
	// Default: 10
	MaxCols int

	// MaxColWidth is the maximum width for column content.
	// Values longer than this are truncated with "...".
	// Default: 25
	MaxColWidth int

	// MinColWidth is the minimum column width for alignment.
	// Default: 8
	MinColWidth int

	// FloatPrecision is the number of decimal places for float values.
	// Default: 4
	FloatPrecision int

	// ShowDTypes controls whether to display data types under column names.
	// Default: true
	ShowDTypes bool

	// ShowShape controls whether to display the shape (rows × columns) header.
	// Default: true
	ShowShape bool

	// TableStyle controls the table border style.
	// Options: "rounded", "sharp", "ascii", "minimal"
	// Default: "rounded"
	TableStyle string
}

// Table style characters
type tableChars struct {
	topLeft, topRight, bottomLeft, bottomRight string
	horizontal, vertical                       string
	topT, bottomT, leftT, rightT, cross        string
}

var tableStyles = map[string]tableChars{
	"rounded": {
		topLeft: "╭", topRight: "╮", bottomLeft: "╰", bottomRight: "╯",
		horizontal: "─", vertical: "│",
		topT: "┬", bottomT: "┴", leftT: "├", rightT: "┤", cross: "┼",
	},
	"sharp": {
		topLeft: "┌", topRight: "┐", bottomLeft: "└", bottomRight: "┘",
		horizontal: "─", vertical: "│",
		topT: "┬", bottomT: "┴", leftT: "├", rightT: "┤", cross: "┼",
	},
	"ascii": {
		topLeft: "+", topRight: "+", bottomLeft: "+", bottomRight: "+",
		horizontal: "-", vertical: "|",
		topT: "+", bottomT: "+", leftT: "+", rightT: "+", cross: "+",
	},
	"minimal": {
		topLeft: " ", topRight: " ", bottomLeft: " ", bottomRight: " ",
		horizontal: "─", vertical: " ",
		topT: " ", bottomT: " ", leftT: " ", rightT: " ", cross: " ",
	},
}

// DefaultDisplayConfig returns the default display configuration.
func DefaultDisplayConfig() DisplayConfig {
	return DisplayConfig{
		MaxRows:        10,
		MaxCols:        10,
		MaxColWidth:    25,
		MinColWidth:    8,
		FloatPrecision: 4,
		ShowDTypes:     true,
		ShowShape:      true,
		TableStyle:     "rounded",
	}
}

// Global display configuration with mutex for thread safety
var (
	globalDisplayConfig = DefaultDisplayConfig()
	displayConfigMu     sync.RWMutex
)

// SetDisplayConfig sets the global display configuration.
func SetDisplayConfig(cfg DisplayConfig) {
	displayConfigMu.Lock()
	defer displayConfigMu.Unlock()
	globalDisplayConfig = cfg
}

// GetDisplayConfig returns the current global display configuration.
func GetDisplayConfig() DisplayConfig {
	displayConfigMu.RLock()
	defer displayConfigMu.RUnlock()
	return globalDisplayConfig
}

// SetMaxDisplayRows sets the maximum number of rows to display.
func SetMaxDisplayRows(n int) {
	displayConfigMu.Lock()
	defer displayConfigMu.Unlock()
	globalDisplayConfig.MaxRows = n
}

// SetMaxDisplayCols sets the maximum number of columns to display.
func SetMaxDisplayCols(n int) {
	displayConfigMu.Lock()
	defer displayConfigMu.Unlock()
	globalDisplayConfig.MaxCols = n
}

// SetFloatPrecision sets the decimal precision for float display.
func SetFloatPrecision(n int) {
	displayConfigMu.Lock()
	defer displayConfigMu.Unlock()
	globalDisplayConfig.FloatPrecision = n
}

// SetTableStyle sets the table border style.
// Options: "rounded", "sharp", "ascii", "minimal"
func SetTableStyle(style string) {
	displayConfigMu.Lock()
	defer displayConfigMu.Unlock()
	if _, ok := tableStyles[style]; ok {
		globalDisplayConfig.TableStyle = style
	}
}

// formatDisplayValue formats a value for display with the given configuration.
func formatDisplayValue(val interface{}, cfg DisplayConfig) string {
	return truncateDisplay(formatCell(val, cfg), cfg.MaxColWidth)
}

// formatCell renders one cell; lists and structs are rendered inline
func formatCell(val interface{}, cfg DisplayConfig) string {
	switch v := val.(type) {
	case nil:
		return "null"
	case float64:
		if math.IsNaN(v) {
			return "NaN"
		}
		if math.IsInf(v, 0) {
			if v > 0 {
				return "inf"
			}
			return "-inf"
		}
		return fmt.Sprintf("%.*f", cfg.FloatPrecision, v)
	case string:
		return v
	case []int64:
		parts := make([]string, len(v))
		for i, x := range v {
			parts[i] = fmt.Sprintf("%d", x)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case []interface{}:
		parts := make([]string, len(v))
		for i, x := range v {
			parts[i] = formatCell(x, cfg)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ": " + formatCell(v[k], cfg)
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return fmt.Sprintf("%v", v)
	}
}

// truncateDisplay shortens s to at most width runes, ending in "..."
func truncateDisplay(s string, width int) string {
	if width < 4 || utf8.RuneCountInString(s) <= width {
		return s
	}
	runes := []rune(s)
	return string(runes[:width-3]) + "..."
}

// displayIndices picks the rows (or columns) to show out of n. When n
// exceeds limit it keeps the head and tail and puts a -1 marker between.
func displayIndices(n, limit int) []int {
	if n <= limit {
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out
	}
	head := limit / 2
	tail := limit - head
	out := make([]int, 0, limit+1)
	for i := 0; i < head; i++ {
		out = append(out, i)
	}
	out = append(out, -1) // marker for "..."
	for i := n - tail; i < n; i++ {
		out = append(out, i)
	}
	return out
}

// calculateColumnWidths computes optimal width for each column.
func calculateColumnWidths(df *DataFrame, cfg DisplayConfig, rowIndices []int) []int {
	widths := make([]int, len(df.columns))

	for i, col := range df.columns {
		// Start with column name width
		widths[i] = utf8.RuneCountInString(col.Name())

		// Check data type width
		if cfg.ShowDTypes {
			dtypeLen := len(col.TypeString())
			if dtypeLen > widths[i] {
				widths[i] = dtypeLen
			}
		}

		// Check sample values
		for _, rowIdx := range rowIndices {
			valLen := utf8.RuneCountInString(formatDisplayValue(col.Get(rowIdx), cfg))
			if valLen > widths[i] {
				widths[i] = valLen
			}
		}

		// Apply min/max constraints
		if widths[i] < cfg.MinColWidth {
			widths[i] = cfg.MinColWidth
		}
		if widths[i] > cfg.MaxColWidth {
			widths[i] = cfg.MaxColWidth
		}
	}

	return widths
}

// StringWithConfig formats the DataFrame using the provided configuration.
func (df *DataFrame) StringWithConfig(cfg DisplayConfig) string {
	if df.height == 0 || len(df.columns) == 0 {
		return "DataFrame(empty)"
	}

	chars, ok := tableStyles[cfg.TableStyle]
	if !ok {
		chars = tableStyles["rounded"]
	}

	var sb strings.Builder

	// Shape header
	if cfg.ShowShape {
		sb.WriteString(fmt.Sprintf("shape: (%d, %d)\n", df.height, len(df.columns)))
	}

	colIndices := displayIndices(len(df.columns), cfg.MaxCols)
	rowIndices := displayIndices(df.height, cfg.MaxRows)

	// Calculate column widths (only for visible columns)
	allWidths := calculateColumnWidths(df, cfg, filterPositive(rowIndices))
	colWidths := make([]int, len(colIndices))
	for i, colIdx := range colIndices {
		if colIdx == -1 {
			colWidths[i] = 3 // "..."
		} else {
			colWidths[i] = allWidths[colIdx]
		}
	}

	// Build the table
	// Top border
	sb.WriteString(chars.topLeft)
	for i, w := range colWidths {
		if i > 0 {
			sb.WriteString(chars.topT)
		}
		sb.WriteString(strings.Repeat(chars.horizontal, w+2))
	}
	sb.WriteString(chars.topRight)
	sb.WriteString("\n")

	// Column names
	sb.WriteString(chars.vertical)
	for i, colIdx := range colIndices {
		if colIdx == -1 {
			sb.WriteString(" " + padLeft("…", colWidths[i]) + " ")
		} else {
			name := truncateDisplay(df.columns[colIdx].Name(), colWidths[i])
			sb.WriteString(" " + padRight(name, colWidths[i]) + " ")
		}
		sb.WriteString(chars.vertical)
	}
	sb.WriteString("\n")

	// Data types row
	if cfg.ShowDTypes {
		sb.WriteString(chars.vertical)
		for i, colIdx := range colIndices {
			if colIdx == -1 {
				sb.WriteString(fmt.Sprintf(" %*s ", colWidths[i], "---"))
			} else {
				dtype := truncateDisplay(df.columns[colIdx].TypeString(), colWidths[i])
				sb.WriteString(" " + padRight(dtype, colWidths[i]) + " ")
			}
			sb.WriteString(chars.vertical)
		}
		sb.WriteString("\n")
	}

	// Separator after header
	sb.WriteString(chars.leftT)
	for i, w := range colWidths {
		if i > 0 {
			sb.WriteString(chars.cross)
		}
		sb.WriteString(strings.Repeat(chars.horizontal, w+2))
	}
	sb.WriteString(chars.rightT)
	sb.WriteString("\n")

	// Data rows
	for _, rowIdx := range rowIndices {
		sb.WriteString(chars.vertical)
		if rowIdx == -1 {
			// Ellipsis row
			for _, w := range colWidths {
				sb.WriteString(" " + padLeft("…", w) + " ")
				sb.WriteString(chars.vertical)
			}
		} else {
			for i, colIdx := range colIndices {
				if colIdx == -1 {
					sb.WriteString(" " + padLeft("…", colWidths[i]) + " ")
				} else {
					val := df.columns[colIdx].Get(rowIdx)
					valStr := truncateDisplay(formatDisplayValue(val, cfg), colWidths[i])
					sb.WriteString(" " + padLeft(valStr, colWidths[i]) + " ")
				}
				sb.WriteString(chars.vertical)
			}
		}
		sb.WriteString("\n")
	}

	// Bottom border
	sb.WriteString(chars.bottomLeft)
	for i, w := range colWidths {
		if i > 0 {
			sb.WriteString(chars.bottomT)
		}
		sb.WriteString(strings.Repeat(chars.horizontal, w+2))
	}
	sb.WriteString(chars.bottomRight)

	return sb.String()
}

// filterPositive returns only positive indices (filters out -1 markers).
func filterPositive(indices []int) []int {
	result := make([]int, 0, len(indices))
	for _, idx := range indices {
		if idx >= 0 {
			result = append(result, idx)
		}
	}
	return result
}

// padLeft right-aligns s in width runes
func padLeft(s string, width int) string {
	if n := utf8.RuneCountInString(s); n < width {
		return strings.Repeat(" ", width-n) + s
	}
	return s
}

// padRight left-aligns s in width runes
func padRight(s string, width int) string {
	if n := utf8.RuneCountInString(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

// SeriesStringWithConfig formats the Series using the provided configuration.
func SeriesStringWithConfig(s *Series, cfg DisplayConfig) string {
	if s.Len() == 0 {
		return fmt.Sprintf("Series: '%s' (%s)\nlength: 0\n[]", s.Name(), s.TypeString())
	}

	chars, ok := tableStyles[cfg.TableStyle]
	if !ok {
		chars = tableStyles["rounded"]
	}

	var sb strings.Builder

	// Header
	sb.WriteString(fmt.Sprintf("Series: '%s' (%s)\n", s.Name(), s.TypeString()))
	sb.WriteString(fmt.Sprintf("length: %d\n", s.Len()))

	rowIndices := displayIndices(s.Len(), cfg.MaxRows)

	// Calculate column widths
	indexWidth := len(fmt.Sprintf("%d", s.Len()-1))
	if indexWidth < 3 {
		indexWidth = 3
	}

	valueWidth := cfg.MinColWidth
	for _, idx := range rowIndices {
		if idx >= 0 {
			if n := utf8.RuneCountInString(formatDisplayValue(s.Get(idx), cfg)); n > valueWidth {
				valueWidth = n
			}
		}
	}
	if valueWidth > cfg.MaxColWidth {
		valueWidth = cfg.MaxColWidth
	}

	// Top border
	sb.WriteString(chars.topLeft)
	sb.WriteString(strings.Repeat(chars.horizontal, indexWidth+2))
	sb.WriteString(chars.topT)
	sb.WriteString(strings.Repeat(chars.horizontal, valueWidth+2))
	sb.WriteString(chars.topRight)
	sb.WriteString("\n")

	// Data rows
	for _, idx := range rowIndices {
		sb.WriteString(chars.vertical)
		if idx == -1 {
			sb.WriteString(" " + padLeft("…", indexWidth) + " ")
			sb.WriteString(chars.vertical)
			sb.WriteString(" " + padLeft("…", valueWidth) + " ")
		} else {
			sb.WriteString(fmt.Sprintf(" %*d ", indexWidth, idx))
			sb.WriteString(chars.vertical)
			valStr := truncateDisplay(formatDisplayValue(s.Get(idx), cfg), valueWidth)
			sb.WriteString(" " + padLeft(valStr, valueWidth) + " ")
		}
		sb.WriteString(chars.vertical)
		sb.WriteString("\n")
	}

	// Bottom border
	sb.WriteString(chars.bottomLeft)
	sb.WriteString(strings.Repeat(chars.horizontal, indexWidth+2))
	sb.WriteString(chars.bottomT)
	sb.WriteString(strings.Repeat(chars.horizontal, valueWidth+2))
	sb.WriteString(chars.bottomRight)

	return sb.String()
}
