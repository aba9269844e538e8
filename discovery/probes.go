package discovery

import (
	"net"
	"strings"
)

// usbInterfacePrefixes name the network interfaces Linux creates for
// USB-tethered devices (RNDIS/ECM).
var usbInterfacePrefixes = []string{"usb", "rndis"}

// EthernetProbe watches one named interface and reports a device once the
// link is up with a usable IPv4 address.
func EthernetProbe(ifname string) Probe {
	return func() (Device, bool) {
		ifi, err := net.InterfaceByName(ifname)
		if err != nil {
			return Device{}, false
		}
		addr, ok := interfaceIPv4(ifi)
		if !ok {
			return Device{}, false
		}
		return Device{
			Kind:    DeviceEthernet,
			Name:    ifname,
			Address: addr,
		}, true
	}
}

// USBTetherProbe scans for the first up USB-tether interface with a usable
// IPv4 address.
func USBTetherProbe() Probe {
	return func() (Device, bool) {
		ifaces, err := net.Interfaces()
		if err != nil {
			return Device{}, false
		}
		for i := range ifaces {
			ifi := &ifaces[i]
			if !hasUSBPrefix(ifi.Name) {
				continue
			}
			if addr, ok := interfaceIPv4(ifi); ok {
				return Device{
					Kind:    DeviceUSBTether,
					Name:    ifi.Name,
					Address: addr,
				}, true
			}
		}
		return Device{}, false
	}
}

func hasUSBPrefix(name string) bool {
	for _, prefix := range usbInterfacePrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// interfaceIPv4 returns the first non-loopback IPv4 address of an interface
// that is administratively and operationally up.
func interfaceIPv4(ifi *net.Interface) (string, bool) {
	if ifi.Flags&net.FlagUp == 0 {
		return "", false
	}
	addrs, err := ifi.Addrs()
	if err != nil {
		return "", false
	}
	for _, addr := range addrs {
		ipnet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}
		ip := ipnet.IP.To4()
		if ip == nil || ip.IsLoopback() {
			continue
		}
		return ip.String(), true
	}
	return "", false
}
