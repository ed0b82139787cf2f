// Package input implements the cabinet controls and DIP switches of the
// Space Invaders board.
package input

import (
	"fmt"
	"log"
)

// Button represents a cabinet control
type Button uint16

const (
	ButtonCoin Button = 1 << iota
	ButtonP1Start
	ButtonP2Start
	ButtonP1Shoot
	ButtonP1Left
	ButtonP1Right
	ButtonP2Shoot
	ButtonP2Left
	ButtonP2Right
	ButtonTilt
)

var buttonNames = map[Button]string{
	ButtonCoin:    "coin",
	ButtonP1Start: "p1_start",
	ButtonP2Start: "p2_start",
	ButtonP1Shoot: "p1_shoot",
	ButtonP1Left:  "p1_left",
	ButtonP1Right: "p1_right",
	ButtonP2Shoot: "p2_shoot",
	ButtonP2Left:  "p2_left",
	ButtonP2Right: "p2_right",
	ButtonTilt:    "tilt",
}

func (b Button) String() string {
	if name, ok := buttonNames[b]; ok {
		return name
	}
	return fmt.Sprintf("Button(0x%X)", uint16(b))
}

// Port 1 bits
const (
	port1Coin    = 0x01
	port1P2Start = 0x02
	port1P1Start = 0x04
	port1Always  = 0x08
	port1P1Shoot = 0x10
	port1P1Left  = 0x20
	port1P1Right = 0x40
)

// Port 2 bits
const (
	port2ShipsMask = 0x03
	port2Tilt      = 0x04
	port2ExtraShip = 0x08
	port2P2Shoot   = 0x10
	port2P2Left    = 0x20
	port2P2Right   = 0x40
	port2CoinInfo  = 0x80
)

// DIPSwitches holds the operator settings read through port 2
type DIPSwitches struct {
	// Ships per game, 3 to 6
	Ships int `json:"ships"`
	// ExtraShipAt1000 awards the bonus ship at 1000 points instead of 1500
	ExtraShipAt1000 bool `json:"extra_ship_at_1000"`
	// HideCoinInfo suppresses the coin information on the attract screen
	HideCoinInfo bool `json:"hide_coin_info"`
}

// DefaultDIPSwitches returns the factory settings
func DefaultDIPSwitches() DIPSwitches {
	return DIPSwitches{Ships: 3}
}

// Validate reports settings the hardware cannot express
func (d DIPSwitches) Validate() error {
	if d.Ships < 3 || d.Ships > 6 {
		return fmt.Errorf("ships must be between 3 and 6, got %d", d.Ships)
	}
	return nil
}

// Controller represents the cabinet control panel
type Controller struct {
	buttons Button
	dip     DIPSwitches

	debugEnabled bool
}

// New creates a new Controller with factory DIP settings
func New() *Controller {
	return &Controller{dip: DefaultDIPSwitches()}
}

// SetButton sets the state of a button
func (c *Controller) SetButton(button Button, pressed bool) {
	old := c.buttons
	if pressed {
		c.buttons |= button
	} else {
		c.buttons &^= button
	}

	if c.debugEnabled && old != c.buttons {
		log.Printf("[INPUT_DEBUG] %s pressed=%t buttons=0x%03X", button, pressed, uint16(c.buttons))
	}
}

// IsPressed returns true if the button is pressed
func (c *Controller) IsPressed(button Button) bool {
	return c.buttons&button != 0
}

// Buttons returns the raw button mask
func (c *Controller) Buttons() Button {
	return c.buttons
}

// SetDIPSwitches replaces the operator settings
func (c *Controller) SetDIPSwitches(dip DIPSwitches) error {
	if err := dip.Validate(); err != nil {
		return err
	}
	c.dip = dip
	return nil
}

// DIPSwitches returns the operator settings
func (c *Controller) DIPSwitches() DIPSwitches {
	return c.dip
}

// Port1 returns the byte read by IN 1
func (c *Controller) Port1() uint8 {
	value := uint8(port1Always)
	value |= c.bit(ButtonCoin, port1Coin)
	value |= c.bit(ButtonP2Start, port1P2Start)
	value |= c.bit(ButtonP1Start, port1P1Start)
	value |= c.bit(ButtonP1Shoot, port1P1Shoot)
	value |= c.bit(ButtonP1Left, port1P1Left)
	value |= c.bit(ButtonP1Right, port1P1Right)
	return value
}

// Port2 returns the byte read by IN 2
func (c *Controller) Port2() uint8 {
	ships := c.dip.Ships - 3
	if ships < 0 || ships > 3 {
		ships = 0
	}
	value := uint8(ships) & port2ShipsMask
	if c.dip.ExtraShipAt1000 {
		value |= port2ExtraShip
	}
	if c.dip.HideCoinInfo {
		value |= port2CoinInfo
	}
	value |= c.bit(ButtonTilt, port2Tilt)
	value |= c.bit(ButtonP2Shoot, port2P2Shoot)
	value |= c.bit(ButtonP2Left, port2P2Left)
	value |= c.bit(ButtonP2Right, port2P2Right)
	return value
}

func (c *Controller) bit(button Button, mask uint8) uint8 {
	if c.buttons&button != 0 {
		return mask
	}
	return 0
}

// Reset releases every button. DIP switches are kept.
func (c *Controller) Reset() {
	c.buttons = 0
}

// EnableDebug enables/disables button change logging
func (c *Controller) EnableDebug(enable bool) {
	c.debugEnabled = enable
}
