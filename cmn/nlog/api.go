package nlog

func InfoDepth(depth int, args ...any)    { log(sevInfo, depth, "", args...) }
func Infoln(args ...any)                 { log(sevInfo, 0, "", args...) }
func Infof(format string, args ...any)   { log(sevInfo, 0, format, args...) }
func Warningln(args ...any)              { log(sevWarn, 0, "", args...) }
func Warningf(format string, args ...any) { log(sevWarn, 0, format, args...) }
func ErrorDepth(depth int, args ...any)  { log(sevErr, depth, "", args...) }
func Errorln(args ...any)                { log(sevErr, 0, "", args...) }
func Errorf(format string, args ...any)  { log(sevErr, 0, format, args...) }

func Flush(_ ...bool) {
	nlogs[sevInfo].flush()
	nlogs[sevErr].flush()
}
