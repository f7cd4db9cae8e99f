// The cashier terminal: log in, locate orders by their dictated or
// scanned code, and walk them through preparing → ready → delivered.
// Order state is shared with every other device through the remote
// order service, with the local replica covering network gaps.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/oxxo-demo/orderhub/internal/cashier"
	"github.com/oxxo-demo/orderhub/internal/config"
	"github.com/oxxo-demo/orderhub/internal/logger"
	"github.com/oxxo-demo/orderhub/internal/manager"
	"github.com/oxxo-demo/orderhub/internal/notify"
	"github.com/oxxo-demo/orderhub/internal/order"
	"github.com/oxxo-demo/orderhub/internal/replica"
	"github.com/oxxo-demo/orderhub/internal/syncclient"
)

func main() {
	cfg := config.Load()
	log := logger.New(zapcore.WarnLevel)
	defer func() { _ = log.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rep, err := replica.NewStore(cfg.StateDir, log)
	if err != nil {
		log.Fatal("failed to open local replica", zap.Error(err))
	}

	store := syncclient.New(cfg.RemoteURL, rep, log)
	bus := notify.NewBus(log)
	mgr := manager.New(store, bus, log, manager.Options{
		SyncInterval: cfg.SyncInterval,
		SessionFile:  filepath.Join(cfg.StateDir, "session"),
	})

	if err := mgr.SeedDemoOrders(ctx); err != nil {
		log.Warn("demo seeding failed", zap.Error(err))
	}

	go mgr.Run(ctx)
	defer mgr.Shutdown()

	bus.Subscribe(func() {
		log.Debug("order data changed")
	})

	// The screen's own refresh, on top of the manager's sync loop.
	go func() {
		ticker := time.NewTicker(cfg.RefreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				mgr.GetAllOrders(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()

	auth, err := cashier.NewAuth()
	if err != nil {
		log.Fatal("failed to initialize accounts", zap.Error(err))
	}

	in := bufio.NewScanner(os.Stdin)
	me := login(in, auth)
	if me == nil {
		return
	}
	desk := cashier.NewDesk(mgr, *me, log)

	fmt.Printf("Bienvenido, %s (%s)\n", me.Name, me.Shift)
	fmt.Println("Comandos: find <código> | ready <id> | deliver <id> | list | clear | exit")

	for {
		fmt.Print("> ")
		if !in.Scan() {
			return
		}
		line := strings.TrimSpace(in.Text())
		if line == "" {
			continue
		}
		cmd, arg, _ := strings.Cut(line, " ")

		switch cmd {
		case "find":
			find(ctx, desk, arg)
		case "ready":
			report(desk.MarkReady(ctx, strings.ToUpper(strings.TrimSpace(arg))))
		case "deliver":
			report(desk.MarkDelivered(ctx, strings.ToUpper(strings.TrimSpace(arg))))
		case "list":
			list(ctx, desk)
		case "clear":
			if err := mgr.ClearAll(ctx); err != nil {
				fmt.Println("Error:", err)
			} else {
				fmt.Println("Órdenes limpiadas")
			}
		case "exit", "quit":
			return
		default:
			fmt.Println("Comando desconocido:", cmd)
		}
	}
}

func login(in *bufio.Scanner, auth *cashier.Auth) *cashier.Cashier {
	for attempts := 0; attempts < 3; attempts++ {
		fmt.Print("Usuario: ")
		if !in.Scan() {
			return nil
		}
		username := strings.TrimSpace(in.Text())

		fmt.Print("Contraseña: ")
		if !in.Scan() {
			return nil
		}

		if c, ok := auth.Login(username, strings.TrimSpace(in.Text())); ok {
			return c
		}
		fmt.Println("Usuario o contraseña incorrectos")
	}
	return nil
}

func find(ctx context.Context, desk *cashier.Desk, code string) {
	o, err := desk.Locate(ctx, code)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	if o == nil {
		fmt.Println("Orden no encontrada:", strings.ToUpper(strings.TrimSpace(code)))
		return
	}
	printOrder(*o)
}

func list(ctx context.Context, desk *cashier.Desk) {
	orders := desk.History(ctx)
	if len(orders) == 0 {
		fmt.Println("Sin órdenes")
		return
	}
	for _, o := range orders {
		fmt.Printf("%s  %-10s  S/ %.2f  %s\n", o.ID, o.Status, o.Total, o.CustomerName)
	}
}

func printOrder(o order.Order) {
	fmt.Printf("Orden %s — %s — S/ %.2f (%s)\n", o.ID, o.CustomerName, o.Total, o.PaymentMethod)
	fmt.Printf("Estado: %s — %s\n", o.Status, order.Descriptions[o.Status])
	for _, it := range o.Items {
		fmt.Printf("  %dx %s  S/ %.2f\n", it.Quantity, it.Name, it.UnitPrice)
	}
	for _, h := range o.StatusHistory {
		fmt.Printf("  [%s] %s: %s\n", h.Timestamp.Format("15:04:05"), h.Status, h.Description)
	}
}

func report(ok bool) {
	if ok {
		fmt.Println("Listo")
	} else {
		fmt.Println("No se pudo actualizar la orden")
	}
}
