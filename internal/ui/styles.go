// Красота

package ui

import "github.com/charmbracelet/lipgloss"

var (
	// Цвета (можно настроить под бренд)
	primaryColor = lipgloss.Color("62")  // Фиолетовый
	accentColor  = lipgloss.Color("205") // Розовый
	grayColor    = lipgloss.Color("240")

	// Стили хедера
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(primaryColor).
			Padding(0, 1).
			Bold(true)

	spinnerStyle = lipgloss.NewStyle().Foreground(accentColor)

	// Стили строк лога
	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#04B575")). // Зеленый
		Render

	categoryStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true).
			Render

	dimStyle = lipgloss.NewStyle().
			Foreground(grayColor).
			Render

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true).
			Render
)
