//go:build linux

package ctfser

import (
	"golang.org/x/sys/unix"
)

type linuxMmapper struct{}

func newMmapper() mmapper { return linuxMmapper{} }

func (linuxMmapper) fallocate(fd uintptr, offset, size int64) error {
	for {
		err := unix.Fallocate(int(fd), 0, offset, size)
		if err != unix.EINTR {
			return err
		}
	}
}

func (linuxMmapper) mapWrite(fd uintptr, offset, size int64) ([]byte, error) {
	return unix.Mmap(int(fd), offset, int(size), unix.PROT_WRITE, unix.MAP_SHARED)
}

func (linuxMmapper) unmap(b []byte) error {
	return unix.Munmap(b)
}
