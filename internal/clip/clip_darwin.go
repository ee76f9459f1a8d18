//go:build darwin

package clip

// #cgo CFLAGS: -x objective-c
// #cgo LDFLAGS: -framework Cocoa
// #import <Cocoa/Cocoa.h>
// #include <stdlib.h>
// #include <string.h>
//
// NSInteger clipstash_changeCount() {
//     return [[NSPasteboard generalPasteboard] changeCount];
// }
//
// void clipstash_clear() {
//     [[NSPasteboard generalPasteboard] clearContents];
// }
//
// // Returns the copied file paths joined by '\n', or NULL. Caller frees.
// char* clipstash_readFileURLs() {
//     @autoreleasepool {
//         NSPasteboard *pb = [NSPasteboard generalPasteboard];
//         NSDictionary *opts = @{NSPasteboardURLReadingFileURLsOnlyKey: @YES};
//         NSArray *urls = [pb readObjectsForClasses:@[[NSURL class]] options:opts];
//         if (urls == nil || [urls count] == 0) {
//             return NULL;
//         }
//         NSMutableArray *paths = [NSMutableArray arrayWithCapacity:[urls count]];
//         for (NSURL *u in urls) {
//             [paths addObject:[u path]];
//         }
//         return strdup([[paths componentsJoinedByString:@"\n"] UTF8String]);
//     }
// }
//
// int clipstash_writeFileURLs(const char *joined) {
//     @autoreleasepool {
//         NSString *s = [NSString stringWithUTF8String:joined];
//         NSMutableArray *urls = [NSMutableArray array];
//         for (NSString *p in [s componentsSeparatedByString:@"\n"]) {
//             if ([p length] > 0) {
//                 [urls addObject:[NSURL fileURLWithPath:p]];
//             }
//         }
//         return [[NSPasteboard generalPasteboard] writeObjects:urls] ? 1 : 0;
//     }
// }
import "C"

import (
	"errors"
	"log/slog"
	"strings"
	"unsafe"

	"golang.design/x/clipboard"
)

type darwinBackend struct{}

// New returns the macOS clipboard backend.
// clipboard.Init is called here rather than in init() so that CLI sub-commands
// that never construct a Pasteboard don't log spurious warnings.
func New() Pasteboard {
	if err := clipboard.Init(); err != nil {
		slog.Warn("clipboard init failed", "err", err)
	}
	return &darwinBackend{}
}

func (b *darwinBackend) Name() string { return "macOS NSPasteboard" }

func (b *darwinBackend) ChangeCount() int64 { return int64(C.clipstash_changeCount()) }

func (b *darwinBackend) ReadString() (string, bool) {
	if text := clipboard.Read(clipboard.FmtText); text != nil {
		return string(text), true
	}
	return "", false
}

func (b *darwinBackend) ReadImage() ([]byte, bool) {
	if img := clipboard.Read(clipboard.FmtImage); img != nil {
		return img, true
	}
	return nil, false
}

func (b *darwinBackend) ReadFileURLs() ([]string, bool) {
	p := C.clipstash_readFileURLs()
	if p == nil {
		return nil, false
	}
	defer C.free(unsafe.Pointer(p))
	joined := C.GoString(p)
	if joined == "" {
		return nil, false
	}
	return strings.Split(joined, "\n"), true
}

func (b *darwinBackend) WriteText(text string) error {
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}

func (b *darwinBackend) WriteImage(png []byte) error {
	clipboard.Write(clipboard.FmtImage, png)
	return nil
}

func (b *darwinBackend) WriteFiles(paths []string) error {
	cs := C.CString(strings.Join(paths, "\n"))
	defer C.free(unsafe.Pointer(cs))
	if C.clipstash_writeFileURLs(cs) == 0 {
		return errors.New("NSPasteboard rejected file URLs")
	}
	return nil
}

func (b *darwinBackend) Clear() error {
	C.clipstash_clear()
	return nil
}

func (b *darwinBackend) Close() {}
