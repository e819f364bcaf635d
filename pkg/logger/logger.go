package logger

import (
	"go.uber.org/zap"
)

var sugar *zap.SugaredLogger

// Init builds the process-wide logger. Production gets JSON output,
// everything else gets the development console encoder.
func Init(environment string) {
	var (
		l   *zap.Logger
		err error
	)

	if environment == "production" {
		l, err = zap.NewProduction(zap.AddCallerSkip(1))
	} else {
		l, err = zap.NewDevelopment(zap.AddCallerSkip(1))
	}
	if err != nil {
		panic(err)
	}

	sugar = l.Sugar()
}

func Info(msg string, args ...any) {
	logger().Infow(msg, normalize(args)...)
}

func Warn(msg string, args ...any) {
	logger().Warnw(msg, normalize(args)...)
}

func Error(msg string, args ...any) {
	logger().Errorw(msg, normalize(args)...)
}

func Fatal(msg string, args ...any) {
	logger().Fatalw(msg, normalize(args)...)
}

// normalize lets call sites pass a bare error as the only argument; zap wants
// key-value pairs.
func normalize(args []any) []any {
	if len(args) == 1 {
		if err, ok := args[0].(error); ok {
			return []any{"error", err}
		}
	}
	return args
}

func logger() *zap.SugaredLogger {
	if sugar == nil {
		Init("development")
	}
	return sugar
}
