package tray

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	"github.com/getlantern/systray"
	"github.com/ncruces/zenity"
	"github.com/petems/memo-tray/internal/config"
	"github.com/petems/memo-tray/internal/library"
	"github.com/petems/memo-tray/internal/recorder"
	"github.com/pkg/browser"
	"github.com/rs/zerolog"
)

// Controls says which actions are available in a recorder state.
type Controls struct {
	Record  bool
	Stop    bool
	Save    bool
	Discard bool
	Library bool
	Details bool // title/comment prompts
}

// ControlsFor maps a recorder state to enabled controls.
func ControlsFor(s recorder.State) Controls {
	switch s {
	case recorder.Recording:
		return Controls{Stop: true}
	case recorder.Paused:
		return Controls{Record: true, Save: true, Discard: true, Details: true}
	default:
		return Controls{Record: true, Library: true}
	}
}

type UI struct {
	rec     *recorder.Recorder
	lib     *library.Library
	cfg     *config.Config
	version string
	commit  string
	log     zerolog.Logger

	mu    sync.Mutex
	ready bool
	state recorder.State
	level int

	// Menu items
	mRecord     *systray.MenuItem
	mStop       *systray.MenuItem
	mSave       *systray.MenuItem
	mDiscard    *systray.MenuItem
	mDevices    *systray.MenuItem
	mRecordings *systray.MenuItem
	mOpenDir    *systray.MenuItem
	mCopyLast   *systray.MenuItem
}

func New(rec *recorder.Recorder, lib *library.Library, cfg *config.Config, log zerolog.Logger, version, commit string) *UI {
	return &UI{
		rec:     rec,
		lib:     lib,
		cfg:     cfg,
		version: version,
		commit:  commit,
		log:     log,
	}
}

// SetRecorder sets the recorder reference (for circular dependency resolution)
func (u *UI) SetRecorder(rec *recorder.Recorder) {
	u.rec = rec
}

// Status update methods for the recorder to call

func (u *UI) SetState(s recorder.State) {
	u.mu.Lock()
	u.state = s
	ready := u.ready
	u.mu.Unlock()

	if ready {
		u.applyControls(ControlsFor(s))
		u.updateTitle()
	}
}

func (u *UI) SetLevel(level int) {
	u.mu.Lock()
	changed := u.level != level
	u.level = level
	ready := u.ready
	u.mu.Unlock()

	if ready && changed {
		u.updateTitle()
	}
}

func (u *UI) Run(ctx context.Context) error {
	systray.Run(u.onReady, u.onExit)
	return nil
}

func (u *UI) onReady() {
	systray.SetTooltip("Voice memo recorder")

	// Build menu
	u.mRecord = systray.AddMenuItem("Record", "Start or resume recording")
	u.mStop = systray.AddMenuItem("Stop", "Pause the recording")
	u.mSave = systray.AddMenuItem("Save…", "Save the recording")
	u.mDiscard = systray.AddMenuItem("Discard", "Delete the unsaved recording")
	systray.AddSeparator()

	u.mDevices = systray.AddMenuItem("Microphone", "Select audio device")
	u.buildDeviceMenu()

	u.mRecordings = systray.AddMenuItem("Recordings", "Saved recordings")
	u.mRecordings.Disable()
	u.mOpenDir = systray.AddMenuItem("Open Recordings Folder", "Show saved recordings")
	if u.cfg.Storage.Backend != config.BackendFS {
		u.mOpenDir.Hide()
	}
	u.mCopyLast = systray.AddMenuItem("Copy Last Recording Name", "Copy to clipboard")

	systray.AddSeparator()
	mLogs := systray.AddMenuItem("Open Logs", "View application logs")
	mAbout := systray.AddMenuItem("About", "About MemoTray")
	mQuit := systray.AddMenuItem("Quit", "Exit application")

	u.mu.Lock()
	u.ready = true
	state := u.state
	u.mu.Unlock()

	u.applyControls(ControlsFor(state))
	u.updateTitle()
	u.refreshRecordings()

	// Event loop
	go u.handleEvents(mLogs, mAbout, mQuit)
}

func (u *UI) handleEvents(mLogs, mAbout, mQuit *systray.MenuItem) {
	for {
		select {
		case <-u.mRecord.ClickedCh:
			if err := u.rec.Start(); err != nil {
				u.fail("Failed to start recording", err)
			}
		case <-u.mStop.ClickedCh:
			err := u.rec.Stop()
			if errors.Is(err, recorder.ErrEmptyRecording) {
				u.notify("Recording is empty!")
			} else if err != nil {
				u.fail("Failed to stop recording", err)
			}
		case <-u.mSave.ClickedCh:
			u.save()
		case <-u.mDiscard.ClickedCh:
			if err := u.rec.Discard(); err != nil {
				u.fail("Failed to discard recording", err)
			}
		case <-u.mOpenDir.ClickedCh:
			if err := browser.OpenFile(u.cfg.Storage.Dir); err != nil {
				u.fail("Failed to open recordings folder", err)
			}
		case <-u.mCopyLast.ClickedCh:
			u.copyLast()
		case <-mLogs.ClickedCh:
			if err := browser.OpenFile(u.cfg.Logging.File); err != nil {
				u.fail("Failed to open logs", err)
			}
		case <-mAbout.ClickedCh:
			u.notify(fmt.Sprintf("MemoTray %s (%s)\nVoice memo recorder", u.version, u.commit))
		case <-mQuit.ClickedCh:
			systray.Quit()
			return
		}
	}
}

func (u *UI) buildDeviceMenu() {
	devices, err := u.rec.ListDevices()
	if err != nil {
		u.log.Error().Err(err).Msg("Failed to list audio devices")
		return
	}

	deviceItems := make(map[string]*systray.MenuItem)

	for _, dev := range devices {
		item := u.mDevices.AddSubMenuItem(dev.Name, "")
		if dev.ID == u.cfg.Audio.DeviceID || (u.cfg.Audio.DeviceID == "" && dev.Default) {
			item.Check()
		}
		deviceItems[dev.ID] = item

		go func(deviceID, deviceName string, menuItem *systray.MenuItem) {
			for {
				<-menuItem.ClickedCh
				if err := u.rec.SetDevice(deviceID); err != nil {
					u.fail("Failed to change audio device", err)
					continue
				}
				// Uncheck all other items
				for id, itm := range deviceItems {
					if id != deviceID {
						itm.Uncheck()
					}
				}
				menuItem.Check()
				u.cfg.Audio.DeviceID = deviceID
				if err := u.cfg.Save(); err != nil {
					u.log.Error().Err(err).Msg("Failed to save config")
				}
				u.log.Info().Str("device", deviceName).Msg("Changed audio device")
			}
		}(dev.ID, dev.Name, item)
	}
}

// save asks for a title and comment, then persists the draft.
func (u *UI) save() {
	title, err := zenity.Entry("Title", zenity.Title("Save recording"))
	if errors.Is(err, zenity.ErrCanceled) {
		return
	}
	if err != nil {
		u.log.Warn().Err(err).Msg("Title prompt unavailable")
	}
	comment, err := zenity.Entry("Comment", zenity.Title("Save recording"))
	if errors.Is(err, zenity.ErrCanceled) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	name, err := u.rec.Save(ctx, recorder.Details{
		Name:    u.cfg.Profile.Name,
		Surname: u.cfg.Profile.Surname,
		Title:   title,
		Comment: comment,
	})
	if err != nil {
		u.fail("Failed to save recording", err)
		return
	}
	u.log.Info().Str("file", name).Msg("Saved from tray")
	u.refreshRecordings()
}

func (u *UI) copyLast() {
	name := u.rec.LastSaved()
	if name == "" {
		u.notify("Nothing saved yet")
		return
	}
	if err := clipboard.WriteAll(name); err != nil {
		u.fail("Failed to copy to clipboard", err)
	}
}

func (u *UI) refreshRecordings() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	recs, err := u.lib.List(ctx)
	if err != nil {
		u.log.Error().Err(err).Msg("Failed to list recordings")
		return
	}
	var total time.Duration
	for _, r := range recs {
		total += r.Duration
	}
	u.mRecordings.SetTitle(fmt.Sprintf("Recordings: %d (%s)", len(recs), total.Round(time.Second)))
}

func (u *UI) applyControls(c Controls) {
	setEnabled(u.mRecord, c.Record)
	setEnabled(u.mStop, c.Stop)
	setEnabled(u.mSave, c.Save)
	setEnabled(u.mDiscard, c.Discard)
	setEnabled(u.mDevices, c.Record && c.Library)
	setEnabled(u.mOpenDir, c.Library)
}

func setEnabled(item *systray.MenuItem, enabled bool) {
	if enabled {
		item.Enable()
	} else {
		item.Disable()
	}
}

func (u *UI) fail(msg string, err error) {
	u.log.Error().Err(err).Msg(msg)
	u.notify(fmt.Sprintf("%s: %v", msg, err))
}

func (u *UI) notify(text string) {
	if err := zenity.Info(text, zenity.Title("MemoTray")); err != nil {
		u.log.Debug().Err(err).Msg("Notification not shown")
	}
}

func (u *UI) onExit() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := u.rec.Shutdown(ctx); err != nil {
		u.log.Error().Err(err).Msg("Shutdown error")
	}
}

func (u *UI) updateTitle() {
	u.mu.Lock()
	title := titleFor(u.state, u.level)
	u.mu.Unlock()
	systray.SetTitle(title)
}

// titleFor renders the tray title with microphone emoji, state and level
func titleFor(s recorder.State, level int) string {
	switch s {
	case recorder.Recording:
		return fmt.Sprintf("🎤 %s %3d%%", emojiForState(s), level)
	default:
		return fmt.Sprintf("🎤 %s", emojiForState(s))
	}
}

// emojiForState returns the appropriate status emoji
func emojiForState(s recorder.State) string {
	switch s {
	case recorder.Recording:
		return "🔴" // Red - recording
	case recorder.Paused:
		return "🟡" // Yellow - unsaved draft
	default:
		return "🟢" // Green - ready/idle
	}
}
