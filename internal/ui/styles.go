package ui

import "github.com/charmbracelet/lipgloss"

// Colors used in the application.
var (
	colorPrimary   = lipgloss.Color("62")  // Purple
	colorSecondary = lipgloss.Color("241") // Gray
	colorMuted     = lipgloss.Color("240") // Darker gray
	colorHighlight = lipgloss.Color("212") // Pink
	colorSuccess   = lipgloss.Color("78")  // Green
)

// SelectedItem style for the currently highlighted item.
var SelectedItem = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Background(colorPrimary).
	Padding(0, 1)

// NormalItem style for unselected items.
var NormalItem = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Padding(0, 1)

// MetaItem style for artist and price columns.
var MetaItem = lipgloss.NewStyle().
	Foreground(colorSecondary)

// SectionHeader style for section titles ("Apps", "Music", ...).
var SectionHeader = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight).
	Padding(0, 1)

// ThumbLoaded marks a row whose artwork is cached.
var ThumbLoaded = lipgloss.NewStyle().
	Foreground(colorSuccess)

// ThumbPending marks a row still waiting on artwork.
var ThumbPending = lipgloss.NewStyle().
	Foreground(colorMuted)

// ScopeTab style for an unselected scope.
var ScopeTab = lipgloss.NewStyle().
	Foreground(colorSecondary).
	Padding(0, 1)

// ScopeTabActive style for the selected scope.
var ScopeTabActive = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Background(colorPrimary).
	Padding(0, 1)

// StatusBar style for the bottom status bar.
var StatusBar = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("236")).
	Padding(0, 1)

// StatusBarKey style for key hints in status bar.
var StatusBarKey = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)

// StatusBarText style for descriptive text in status bar.
var StatusBarText = lipgloss.NewStyle().
	Foreground(colorSecondary)

// HelpStyle for help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(colorMuted).
	Padding(1, 2)

// SearchBar style for the search input bar.
var SearchBar = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("240")).
	Padding(0, 1)

// SearchBarPrompt style for the prompt.
var SearchBarPrompt = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)

// ResultCount style for the result counter.
var ResultCount = lipgloss.NewStyle().
	Foreground(colorSecondary)

// DebugPanel frames the debug overlay.
var DebugPanel = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorPrimary).
	Padding(1, 2)

// DebugHeaderStyle for debug overlay section titles.
var DebugHeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight)
