//go:build windows

// Package console decides whether the process owns a visible console and
// installs a Ctrl+C handler that keeps working while SDL holds the OS thread.
package console

import (
	"log/slog"
	"os"
	"strings"
	"sync"
	"syscall"
	"unsafe"
)

var (
	kernel32                       = syscall.NewLazyDLL("kernel32.dll")
	procGetConsoleWindow           = kernel32.NewProc("GetConsoleWindow")
	procAllocConsole               = kernel32.NewProc("AllocConsole")
	procFreeConsole                = kernel32.NewProc("FreeConsole")
	procGetStdHandle               = kernel32.NewProc("GetStdHandle")
	procCreateToolhelp32Snapshot   = kernel32.NewProc("CreateToolhelp32Snapshot")
	procProcess32First             = kernel32.NewProc("Process32FirstW")
	procProcess32Next              = kernel32.NewProc("Process32NextW")
	procOpenProcess                = kernel32.NewProc("OpenProcess")
	procQueryFullProcessImageNameW = kernel32.NewProc("QueryFullProcessImageNameW")
	procSetConsoleCtrlHandler      = kernel32.NewProc("SetConsoleCtrlHandler")
)

const (
	th32csSnapProcess      = 0x00000002
	processQueryLimited    = 0x1000
	maxPath                = 260
	ctrlCEvent             = 0
	ctrlBreakEvent         = 1
	stdInputHandle  uint32 = 0xFFFFFFF6 // -10
	stdOutputHandle uint32 = 0xFFFFFFF5 // -11
	stdErrorHandle  uint32 = 0xFFFFFFF4 // -12
)

type processEntry32 struct {
	Size            uint32
	Usage           uint32
	ProcessID       uint32
	DefaultHeapID   uintptr
	ModuleID        uint32
	Threads         uint32
	ParentProcessID uint32
	PriClassBase    int32
	Flags           uint32
	ExeFile         [maxPath]uint16
}

// IsRunningFromConsole reports whether the program was started from a
// terminal. A double-click from Explorer counts as GUI mode: any console the
// loader created is released so only the tray remains. A GUI-subsystem build
// started from a terminal gets its own console with the std streams
// redirected to it.
func IsRunningFromConsole() bool {
	fromExplorer := parentIsExplorer()
	hasConsole, _, _ := procGetConsoleWindow.Call()

	switch {
	case hasConsole != 0 && fromExplorer:
		procFreeConsole.Call()
		return false
	case hasConsole != 0:
		return true
	case fromExplorer:
		return false
	}

	procAllocConsole.Call()
	redirectStdStreams()
	return true
}

func redirectStdStreams() {
	out, _, _ := procGetStdHandle.Call(uintptr(stdOutputHandle))
	errOut, _, _ := procGetStdHandle.Call(uintptr(stdErrorHandle))
	in, _, _ := procGetStdHandle.Call(uintptr(stdInputHandle))
	if out == 0 || errOut == 0 {
		return
	}
	os.Stdout = os.NewFile(out, "/dev/stdout")
	os.Stderr = os.NewFile(errOut, "/dev/stderr")
	if in != 0 {
		os.Stdin = os.NewFile(in, "/dev/stdin")
	}
}

func parentIsExplorer() bool {
	ppid := parentProcessID(uint32(os.Getpid()))
	if ppid == 0 {
		return false
	}
	name := processImageName(ppid)
	if i := strings.LastIndexAny(name, `\/`); i >= 0 {
		name = name[i+1:]
	}
	return strings.EqualFold(name, "explorer.exe")
}

func parentProcessID(pid uint32) uint32 {
	snap, _, _ := procCreateToolhelp32Snapshot.Call(th32csSnapProcess, 0)
	if snap == uintptr(syscall.InvalidHandle) {
		return 0
	}
	defer syscall.CloseHandle(syscall.Handle(snap))

	var entry processEntry32
	entry.Size = uint32(unsafe.Sizeof(entry))
	ok, _, _ := procProcess32First.Call(snap, uintptr(unsafe.Pointer(&entry)))
	for ok != 0 {
		if entry.ProcessID == pid {
			return entry.ParentProcessID
		}
		ok, _, _ = procProcess32Next.Call(snap, uintptr(unsafe.Pointer(&entry)))
	}
	return 0
}

func processImageName(pid uint32) string {
	h, _, _ := procOpenProcess.Call(processQueryLimited, 0, uintptr(pid))
	if h == 0 {
		return ""
	}
	defer syscall.CloseHandle(syscall.Handle(h))

	var buf [maxPath]uint16
	size := uint32(maxPath)
	ok, _, _ := procQueryFullProcessImageNameW.Call(h, 0, uintptr(unsafe.Pointer(&buf[0])), uintptr(unsafe.Pointer(&size)))
	if ok == 0 {
		return ""
	}
	return syscall.UTF16ToString(buf[:size])
}

// The callback must outlive SetupConsoleHandler, so it lives at package level.
var (
	ctrlOnce     sync.Once
	ctrlShutdown chan struct{}
	ctrlCallback uintptr
)

// SetupConsoleHandler closes shutdown on Ctrl+C or Ctrl+Break. The returned
// function registers the handler again; call it after SDL initialization,
// which installs its own.
func SetupConsoleHandler(shutdown chan struct{}, logger *slog.Logger) func() {
	ctrlShutdown = shutdown
	ctrlCallback = syscall.NewCallback(func(ctrlType uint32) uintptr {
		if ctrlType != ctrlCEvent && ctrlType != ctrlBreakEvent {
			return 0
		}
		ctrlOnce.Do(func() { close(ctrlShutdown) })
		return 1
	})

	register := func() {
		if ret, _, _ := procSetConsoleCtrlHandler.Call(ctrlCallback, 1); ret == 0 {
			logger.Warn("Failed to set Windows console control handler")
		}
	}
	register()
	return register
}
