package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	bubblesKey "github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/livetv-cli/livetv/catalog"
	"github.com/livetv-cli/livetv/constant"
	"github.com/livetv-cli/livetv/internal/ui"
	"github.com/livetv-cli/livetv/key"
	"github.com/livetv-cli/livetv/playback"
	"github.com/livetv-cli/livetv/player"
	"github.com/livetv-cli/livetv/style"
	"github.com/livetv-cli/livetv/util"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/viper"
)

// statefulBubble encapsulates the application state, component models and navigation.
type statefulBubble struct {
	state         state
	statesHistory util.Stack[state]

	keymap *statefulKeymap

	// components
	spinnerC    spinner.Model
	inputC      textinput.Model
	channelsC   list.Model
	categoriesC list.Model
	historyC    list.Model
	volumeC     progress.Model
	helpC       help.Model

	catalog  *catalog.Catalog
	category string

	// mpv is started on first play and reused for every channel after that.
	mpv      player.Player
	playback *playback.Player
	playing  *catalog.Channel
	pending  *catalog.Channel
	// menuCursor indexes the quality menu rows.
	menuCursor int

	progressStatus   string
	searchSuggestion mo.Option[string]
	lastError        error

	width, height int
	notifier      *ui.Model

	options *Options
}

// raiseError dispatches a terminal error and transitions the application to the failure view.
func (b *statefulBubble) raiseError(err error) {
	b.lastError = err
	b.newState(errorState)
}

func (b *statefulBubble) setState(s state) {
	b.state = s
	b.keymap.setState(s)
}

// newState moves to s, remembering the current state unless it is transient.
func (b *statefulBubble) newState(s state) {
	if b.state == s {
		return
	}

	if !lo.Contains([]state{
		loadingState,
		errorState,
	}, b.state) {
		b.statesHistory.Push(b.state)
	}

	b.setState(s)
}

// previousState restores the application to its immediate predecessor in the navigation stack.
func (b *statefulBubble) previousState() {
	if b.statesHistory.Len() > 0 {
		b.setState(b.statesHistory.Pop())
	}
}

// resize propagates terminal dimension changes to all child component models.
func (b *statefulBubble) resize(width, height int) {
	x, y := paddingStyle.GetFrameSize()
	xx, yy := listExtraPaddingStyle.GetFrameSize()

	listWidth := width - xx
	listHeight := height - yy

	for _, l := range []*list.Model{&b.channelsC, &b.categoriesC, &b.historyC} {
		l.SetSize(listWidth, listHeight)
		l.Help.Width = listWidth
	}

	b.inputC.Width = listWidth
	b.volumeC.Width = util.Clamp(listWidth/4, 10, 30)
	b.helpC.Width = listWidth

	b.width = width - x
	b.height = height - y
}

// newBubble performs a complete initialization of the application's primary UI model.
func newBubble(c *catalog.Catalog, options *Options) *statefulBubble {
	bubble := statefulBubble{
		statesHistory: util.Stack[state]{},
		keymap:        newStatefulKeymap(),
		catalog:       c,
		notifier:      &ui.Model{},
		options:       options,
	}

	makeList := func(title string, description bool, titleStyle lipgloss.Style) list.Model {
		delegate := list.NewDefaultDelegate()
		delegate.SetSpacing(viper.GetInt(key.TUIItemSpacing))
		delegate.ShowDescription = description
		delegate.Styles.SelectedTitle = lipgloss.NewStyle().
			Border(lipgloss.ThickBorder(), false, false, false, true).
			BorderForeground(style.AccentColor).
			Foreground(style.AccentColor).
			Padding(0, 0, 0, 1)
		delegate.Styles.NormalTitle = delegate.Styles.NormalTitle.Foreground(style.Text)
		delegate.Styles.SelectedDesc = delegate.Styles.SelectedTitle

		listC := list.New([]list.Item{}, delegate, 0, 0)
		listC.KeyMap = bubble.keymap.forList()
		listC.AdditionalShortHelpKeys = bubble.keymap.ShortHelp
		listC.AdditionalFullHelpKeys = func() []bubblesKey.Binding {
			return bubble.keymap.FullHelp()[0]
		}
		listC.Title = title
		listC.Styles.Title = titleStyle
		listC.Styles.NoItems = paddingStyle
		listC.StatusMessageLifetime = time.Hour * 999
		listC.SetFilteringEnabled(false)
		listC.SetShowStatusBar(false)

		return listC
	}

	banner := func(bg lipgloss.Color) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(style.Base).Background(bg).Padding(0, 1)
	}

	bubble.helpC = help.New()

	bubble.spinnerC = spinner.New()
	bubble.spinnerC.Spinner = spinner.Dot
	bubble.spinnerC.Style = lipgloss.NewStyle().Foreground(style.AccentColor)

	bubble.inputC = textinput.New()
	bubble.inputC.Placeholder = fmt.Sprintf("Search channels (v%s)", constant.Version)
	bubble.inputC.CharLimit = 60
	bubble.inputC.Prompt = viper.GetString(key.TUISearchPromptString)

	bubble.volumeC = progress.New(progress.WithSolidFill(string(style.AccentColor)), progress.WithoutPercentage())

	bubble.channelsC = makeList("Channels", true, banner(style.AccentColor))
	bubble.channelsC.SetStatusBarItemName("channel", "channels")

	bubble.categoriesC = makeList("Categories", false, banner(style.Peach))
	bubble.categoriesC.SetStatusBarItemName("category", "categories")

	bubble.historyC = makeList("Recently Played", true, banner(style.Yellow))
	bubble.historyC.SetStatusBarItemName("entry", "entries")

	bubble.category = options.Category
	if bubble.category == "" {
		bubble.category = viper.GetString(key.CatalogDefaultCategory)
	}
	bubble.loadCategories()
	bubble.loadChannels("")

	if w, h, err := util.TerminalSize(); err == nil {
		bubble.resize(w, h)
	}

	bubble.setState(channelsState)
	return &bubble
}
